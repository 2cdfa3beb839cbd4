package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"finfeed/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get or set configuration values",
	}

	cmd.AddCommand(newConfigGetCommand(a), newConfigSetCommand(a))

	return cmd
}

func newConfigGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print one configuration value, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			}
			return a.runConfigGet(cmd.OutOrStdout(), key)
		},
	}
}

func newConfigSetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set key value",
		Short: "Set a configuration value and save it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func (a *app) runConfigGet(out io.Writer, key string) error {
	if key != "" {
		value, err := a.cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", key, value)
		return nil
	}

	for _, k := range config.Keys() {
		value, err := a.cfg.Get(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", k, value)
	}

	return nil
}

func (a *app) runConfigSet(out io.Writer, key, value string) error {
	if err := a.cfg.Set(key, value); err != nil {
		return err
	}
	if err := a.cfg.SaveConfig(a.resolvedConfigPath); err != nil {
		return fmt.Errorf("saving config to %s: %w", a.resolvedConfigPath, err)
	}

	fmt.Fprintf(out, "Set %s to %s.\n", key, value)
	return nil
}
