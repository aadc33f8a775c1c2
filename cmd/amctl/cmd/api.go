package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nyxwatch/am3/internal/catalog"
)

func newAPICommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "api",
		Short: "manage the optional remote HTTP bridge",
	}
	root.AddCommand(newAPIInitCommand())
	root.AddCommand(newAPIStartCommand())
	root.AddCommand(newAPIStopCommand())
	return root
}

func newAPIInitCommand() *cobra.Command {
	var (
		nodeName      string
		serverAddress string
		namespace     string
		socketioPath  string
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "generate an api token and record the remote-bridge identity in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			block := catalog.APIBlock{
				APIToken:      uuid.NewString(),
				NodeName:      nodeName,
				ServerAddress: serverAddress,
				Namespace:     namespace,
				SocketIOPath:  socketioPath,
			}
			if err := a.facade.SetAPIBlock(cmd.Context(), block); err != nil {
				return err
			}
			fmt.Printf("%s api_token=%s\n", green("initialized"), block.APIToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&nodeName, "node-name", "", "identifies this host to a fleet controller")
	cmd.Flags().StringVar(&serverAddress, "server-address", "", "address other nodes should use to reach this bridge")
	cmd.Flags().StringVar(&namespace, "namespace", "", "socket.io namespace the fleet controller expects")
	cmd.Flags().StringVar(&socketioPath, "socketio-path", "", "socket.io endpoint path the fleet controller expects")
	return cmd
}

func newAPIStartCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "launch the remote bridge, detached, listening on addr",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if block, err := a.facade.GetAPIBlock(); err != nil || block.APIToken == "" {
				fmt.Println(gray("warning: no api_token recorded; run `amctl api init` first, or the bridge will be unauthenticated"))
			}

			binary, err := bridgeBinary()
			if err != nil {
				return err
			}
			c := exec.Command(binary, addr)
			c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
			devnull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
			if err != nil {
				return err
			}
			defer devnull.Close()
			c.Stdin, c.Stdout, c.Stderr = devnull, devnull, devnull

			if err := c.Start(); err != nil {
				return fmt.Errorf("launch bridge: %w", err)
			}
			if err := c.Process.Release(); err != nil {
				return err
			}
			fmt.Printf("%s remote bridge on %s\n", green("started"), addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8420", "listen address")
	return cmd
}

func newAPIStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "stop a detached remote bridge started with `amctl api start`",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			pidFile := filepath.Join(a.tree.Root, "bridge.pid")
			data, err := os.ReadFile(pidFile)
			if err != nil {
				return fmt.Errorf("no bridge pid file found: %w", err)
			}
			pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
			if err != nil {
				return fmt.Errorf("parse bridge pid file: %w", err)
			}
			if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
				return fmt.Errorf("signal bridge (pid %d): %w", pid, err)
			}
			fmt.Printf("%s remote bridge (pid %d)\n", green("stopped"), pid)
			return nil
		},
	}
}

func bridgeBinary() (string, error) {
	if p := os.Getenv("AM3_BRIDGE_PATH"); p != "" {
		return p, nil
	}
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate own executable: %w", err)
	}
	return filepath.Join(filepath.Dir(self), "am3-bridge"), nil
}
