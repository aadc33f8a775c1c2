package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nyxwatch/am3/internal/catalog"
)

func newStartCommand() *cobra.Command {
	var (
		start               string
		interpreter         string
		params              string
		workingDirectory    string
		name                string
		beforeExecute       string
		restartKeyword      []string
		restartKeywordRegex []string
		restartControl      bool
		restartCheckDelay   float64
		restartWaitTime     float64
		updateScript        string
		generate            string
		confPath            string
	)

	cmd := &cobra.Command{
		Use:     "start [id|all|--start PATH]",
		Aliases: []string{"st"},
		Short:   "start a new application, or an existing one by id",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// -c/--config or --start registers (or updates) a record before
			// starting it; a bare id/"all" argument starts an existing one.
			if confPath != "" || start != "" {
				cfg := catalog.ApplicationConfig{
					Start:               start,
					Interpreter:         interpreter,
					Params:              params,
					WorkingDirectory:    workingDirectory,
					Name:                name,
					BeforeExecute:       beforeExecute,
					RestartControl:      restartControl,
					RestartCheckDelay:   restartCheckDelay,
					RestartKeyword:      restartKeyword,
					RestartKeywordRegex: restartKeywordRegex,
					RestartWaitTime:     restartWaitTime,
					UpdateScript:        updateScript,
				}
				if confPath != "" {
					loaded, err := loadConfigFile(confPath)
					if err != nil {
						return err
					}
					cfg = loaded
				}
				if cfg.Start == "" {
					return fmt.Errorf("start: --start PATH or -c CONF is required to register a new application")
				}

				a, err := newApp(ctx)
				if err != nil {
					return err
				}

				if generate != "" {
					defaulted, err := a.facade.PreviewDefaults(cfg)
					if err != nil {
						return err
					}
					return writeConfigFile(generate, defaulted)
				}

				id, err := a.facade.CreateOrUpdate(ctx, cfg)
				if err != nil {
					return err
				}
				if err := a.startID(ctx, id); err != nil {
					return err
				}
				fmt.Printf("%s application %d (%s)\n", green("started"), id, cfg.Name)
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("start: give an id, \"all\", or --start PATH")
			}
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			ids, err := a.facade.Resolve(args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := a.startID(ctx, id); err != nil {
					fmt.Fprintf(os.Stderr, "%s application %d: %v\n", red("failed to start"), id, err)
					continue
				}
				fmt.Printf("%s application %d\n", green("started"), id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "path to the executable or script to run")
	cmd.Flags().StringVar(&interpreter, "interpreter", "", "interpreter to invoke start with")
	cmd.Flags().StringVar(&params, "params", "", "arguments appended to the command line verbatim")
	cmd.Flags().StringVar(&workingDirectory, "working-directory", "", "working directory for the child process")
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the start path's base name without its extension)")
	cmd.Flags().StringVar(&beforeExecute, "before-execute", "", "readiness-check executable polled before the first spawn (not re-run on respawn)")
	cmd.Flags().StringArrayVar(&restartKeyword, "restart-keyword", nil, "literal substring that triggers a restart (repeatable)")
	cmd.Flags().StringArrayVar(&restartKeywordRegex, "restart-keyword-regex", nil, "regular expression that triggers a restart (repeatable)")
	cmd.Flags().BoolVar(&restartControl, "restart-control", true, "act on trigger matches (use --restart-control=false to only log them)")
	cmd.Flags().Float64Var(&restartCheckDelay, "restart-check-delay", 0, "seconds after spawn before triggers are evaluated")
	cmd.Flags().Float64Var(&restartWaitTime, "restart-wait-time", 0, "cooldown seconds between a child's exit and its respawn")
	cmd.Flags().StringVar(&updateScript, "update-script", "", "path stored with the application record; am3 does not run it")
	cmd.Flags().StringVar(&generate, "generate", "", "write the defaulted configuration to OUT instead of starting anything")
	cmd.Flags().StringVarP(&confPath, "config", "c", "", "load the application configuration from a JSON file")

	return cmd
}

func loadConfigFile(path string) (catalog.ApplicationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.ApplicationConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg catalog.ApplicationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return catalog.ApplicationConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func writeConfigFile(path string, cfg catalog.ApplicationConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("%s configuration written to %s\n", green("generated"), path)
	return nil
}
