package main

import (
	"fmt"
	"strings"

	"labelwatch/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the configuration",
	}
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigPathCommand())
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show every configured value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderConfigTable(store.Path(), cfg))
			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(out, warningText("Invalid values fall back to defaults: "+err.Error()))
			}
			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <[section.]key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value and write the file back.
Without a section the key is set in the DEFAULT section.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			section, key := splitKey(args[0])
			if key == "" {
				return fmt.Errorf("invalid key %q", args[0])
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Update(section, key, args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successText(fmt.Sprintf("%s.%s = %s", section, key, args[1])))
			return nil
		},
	}
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return nil
		},
	}
}

// splitKey parses "section.key" or "key"
func splitKey(arg string) (section, key string) {
	arg = strings.TrimSpace(arg)
	if s, k, ok := strings.Cut(arg, "."); ok {
		if strings.TrimSpace(s) == "" {
			s = config.DefaultSection
		}
		return s, strings.TrimSpace(k)
	}
	return config.DefaultSection, arg
}
