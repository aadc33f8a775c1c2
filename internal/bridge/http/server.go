// Package bridgehttp is the optional remote bridge (spec.md §9 supplemented
// feature, carried from the catalog's ApiBlock: api_token, node_name,
// server_address). It exposes the same operations amctl performs locally —
// list, start, stop, restart, delete, tail — over HTTP, so a remote
// dashboard (or a fleet-management node) can drive a single am3 host.
//
// Middleware order and style are grounded on cmd/zmux-server/main.go's
// ZapLogger and internal/http/middleware/auth.go's layered
// Authentication (Basic / session / Bearer, first match wins).
package bridgehttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nyxwatch/am3/internal/bridge/events"
	"github.com/nyxwatch/am3/internal/bridge/hub"
	"github.com/nyxwatch/am3/internal/bridge/watch"
	"github.com/nyxwatch/am3/internal/catalog"
)

// Config parameterizes the bridge server.
type Config struct {
	Addr       string
	StatusPath string // tree.Status; watched for catalog-change push notifications
	APIToken   string // catalog's api.api_token; empty disables bearer auth
	DevCORS    bool
	SecretKey  []byte // cookie-session signing key
	RedisAddr  string // non-empty enables cross-node catalog-change fanout via internal/bridge/events
	RedisDB    int
}

// Server is the remote bridge: a gin router bound to the catalog façade.
type Server struct {
	log    *zap.Logger
	facade *catalog.Facade
	cfg    Config
	engine *gin.Engine
	hub    *hub.Hub
	events *events.Bus
}

// New builds the router but does not start listening.
func New(log *zap.Logger, facade *catalog.Facade, cfg Config) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("bridge_http")

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(gin.Recovery())
	r.Use(secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	}))
	if cfg.DevCORS {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	key := cfg.SecretKey
	if len(key) == 0 {
		key = []byte("am3-bridge-dev-key") // used whenever Config.SecretKey is empty; cmd/am3-bridge does not set one
	}
	r.Use(sessions.Sessions("am3_session", cookie.NewStore(key)))
	r.Use(zapLogger(log))

	s := &Server{log: log, facade: facade, cfg: cfg, engine: r, hub: hub.New(log)}
	if cfg.RedisAddr != "" {
		s.events = events.New(log, cfg.RedisAddr, cfg.RedisDB)
	}
	s.routes()
	return s
}

// Run starts the HTTP listener and, if StatusPath is set, a background
// watcher that pushes a "catalog changed" notification to every connected
// websocket client (and, if RedisAddr is set, to every other am3 bridge
// node) whenever the catalog file is written. It blocks on the HTTP
// listener until that returns an error (or the process is killed).
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.StatusPath != "" {
		go func() {
			if err := watch.Catalog(ctx, s.log, s.cfg.StatusPath, s.broadcastChange); err != nil {
				s.log.Warn("catalog watch stopped", zap.Error(err))
			}
		}()
	}
	return s.engine.Run(s.cfg.Addr)
}

func (s *Server) broadcastChange() {
	s.hub.Broadcast([]byte(`{"kind":"catalog_changed"}`))
	if s.events != nil {
		s.events.Publish(context.Background(), events.Event{Kind: events.KindUpdated})
	}
}

// Close releases the optional Redis connection, if one was configured.
func (s *Server) Close() error {
	if s.events != nil {
		return s.events.Close()
	}
	return nil
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	api.Use(s.authenticate)

	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	api.GET("/apps", s.handleList)
	api.GET("/apps/:id", s.handleGet)
	api.POST("/apps/:id/start", s.handleStart)
	api.POST("/apps/:id/stop", s.handleStop)
	api.POST("/apps/:id/restart", s.handleStart) // restart == (re)start via the same stop-then-start policy
	api.DELETE("/apps/:id", s.handleDelete)
	api.GET("/apps/:id/log", s.handleLog)
	api.GET("/ws", func(c *gin.Context) {
		if err := s.hub.ServeWS(c.Writer, c.Request); err != nil {
			s.log.Warn("websocket upgrade failed", zap.Error(err))
		}
	})
}

// zapLogger mirrors cmd/zmux-server/main.go's ZapLogger middleware.
func zapLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		joined := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		}
		if joined != nil {
			fields = append(fields, zap.Error(joined))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
