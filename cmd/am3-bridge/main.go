// Command am3-bridge runs the optional remote HTTP bridge in the
// foreground (spec.md §9 supplemented feature). amctl api start launches it
// detached the same way cmd/am3-monitor is launched for a supervised
// application; amctl api stop signals it via its pid file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/nyxwatch/am3/internal/am3path"
	bridgehttp "github.com/nyxwatch/am3/internal/bridge/http"
	"github.com/nyxwatch/am3/internal/catalog"
	"github.com/nyxwatch/am3/internal/ctllog"
)

func main() {
	addr := ":8420"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	tree, err := am3path.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve am3 home: %v\n", err)
		os.Exit(1)
	}

	log, err := ctllog.New(tree.CtlLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log = log.Named("bridge")

	if err := os.WriteFile(filepath.Join(tree.Root, "bridge.pid"), []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		log.Warn("write bridge pid file failed", zap.Error(err))
	}

	store := catalog.NewStore(log, tree, 0)
	facade := catalog.NewFacade(log, store, tree)

	doc, err := store.Load()
	if err != nil {
		log.Error("load catalog for api config failed", zap.Error(err))
		os.Exit(1)
	}

	cfg := bridgehttp.Config{
		Addr:       addr,
		StatusPath: tree.Status,
		APIToken:   doc.API.APIToken,
		DevCORS:    os.Getenv("AM3_DEV_CORS") == "1",
	}
	if redisAddr := os.Getenv("AM3_REDIS_ADDR"); redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}

	srv := bridgehttp.New(log, facade, cfg)
	defer srv.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("bridge server exited with error", zap.Error(err))
			os.Exit(1)
		}
	}
}
