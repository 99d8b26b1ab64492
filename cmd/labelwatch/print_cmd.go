package main

import (
	"fmt"
	"path/filepath"

	"labelwatch/internal/label"
	"labelwatch/internal/printer"
	"labelwatch/internal/watch"
	"labelwatch/pkg/types"

	"github.com/spf13/cobra"
)

func newPrintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "print <file>",
		Short: "Print one label file now",
		Long: `Run a single label file through the same split and print steps the
watcher uses, including deletion when delete_files is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if !label.DefaultMatcher().Match(path) {
				return fmt.Errorf("%s is not a label file (%s)", path, label.DefaultPattern)
			}

			store, cfg, err := loadConfig()
			if err != nil {
				return err
			}

			router := watch.NewRouter(cfg, store, printer.NewDispatcher(printer.NewLPR(cfg.PrintCommand())))
			result, err := router.Process(cmd.Context(), types.NewWatchEvent(path, types.Modified))
			if err != nil {
				return err
			}
			if !result.OK() {
				return result.Err()
			}

			fmt.Fprintln(cmd.OutOrStdout(), successText(fmt.Sprintf("Printed %d segment(s) from %s", result.Printed(), path)))
			return nil
		},
	}
}
