package cmd

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/nyxwatch/am3/internal/am3path"
	"github.com/nyxwatch/am3/internal/bridge/systemd"
)

func newStartupCommand() *cobra.Command {
	var (
		serviceName string
		disable     bool
	)

	cmd := &cobra.Command{
		Use:   "startup",
		Short: "install (or remove) a systemd unit that resurrects the catalog at boot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := am3path.Resolve()
			if err != nil {
				return err
			}
			if am3path.DetectInitSystem() != am3path.InitSystemd {
				return fmt.Errorf("startup: only systemd is supported by this command; install a boot unit manually on this platform")
			}

			mgr, err := systemd.New()
			if err != nil {
				return err
			}

			if disable {
				if err := mgr.Disable(serviceName); err != nil {
					return err
				}
				fmt.Printf("%s %s\n", green("disabled"), serviceName)
				return nil
			}

			self, err := os.Executable()
			if err != nil {
				return fmt.Errorf("locate own executable: %w", err)
			}
			shellPath, shellFlag := am3path.Shell()

			u, err := user.Current()
			if err != nil {
				return fmt.Errorf("resolve current user: %w", err)
			}

			cfg := systemd.UnitConfig{
				ServiceName: serviceName,
				ExecStart:   fmt.Sprintf("%s %s '%s load && %s start all'", shellPath, shellFlag, self, self),
				User:        u.Username,
				AM3Home:     tree.Root,
			}
			if err := mgr.Install(cfg); err != nil {
				return err
			}
			if err := mgr.Enable(serviceName); err != nil {
				return err
			}
			fmt.Printf("%s %s (runs `%s load && %s start all` at boot)\n", green("installed and enabled"), serviceName, self, self)
			return nil
		},
	}

	cmd.Flags().StringVar(&serviceName, "service-name", "am3-resurrect", "systemd unit name to install")
	cmd.Flags().BoolVar(&disable, "disable", false, "stop and disable the unit instead of installing it")
	return cmd
}
