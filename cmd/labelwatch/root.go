package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"labelwatch/internal/config"
	"labelwatch/internal/log"
	"labelwatch/internal/printer"
	"labelwatch/internal/watch"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Environment variables read at startup
const (
	envConfig    = "LABELWATCH_CONFIG"
	envLogLevel  = "LABELWATCH_LOG_LEVEL"
	envLogFormat = "LABELWATCH_LOG_FORMAT"
	envLogFile   = "LABELWATCH_LOG_FILE"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "labelwatch",
		Short: "Print label files dropped into a watched directory",
		Long: `labelwatch watches ~/<file_directory> for .zpl and .lbl files.
A file containing the form delimiter is split in two: the card part prints
on printer1 and the form part on printer2. Any other label file prints on
the system default printer. The file is deleted afterwards when
delete_files is set.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService(cmd.Context(), cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(newConfigCommand())
	root.AddCommand(newPrintCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func configureLogging() {
	opts := []log.Option{
		log.WithOutput(os.Stderr),
		log.WithColors(isatty.IsTerminal(os.Stderr.Fd())),
	}
	if strings.EqualFold(os.Getenv(envLogFormat), "json") {
		opts = append(opts, log.WithJSON())
	}
	if path := strings.TrimSpace(os.Getenv(envLogFile)); path != "" {
		opts = append(opts, log.WithFile(path))
	}
	log.Configure(opts...)
	log.SetDebug(strings.EqualFold(os.Getenv(envLogLevel), "debug"))
}

func openStore() (*config.Store, error) {
	path := strings.TrimSpace(os.Getenv(envConfig))
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return config.NewStore(path), nil
}

func loadConfig() (*config.Store, *config.Configuration, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		log.LogWithFields(log.F("config", store.Path()), log.F("error", err)).Warn("Configuration has invalid values, defaults apply to them")
	}
	return store, cfg, nil
}

func runService(ctx context.Context, cmd *cobra.Command) error {
	store, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir, err := watch.ResolveWatchDir(cfg, home)
	if err != nil {
		log.LogError(err, "Cannot start without a watch directory")
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			log.LogWithFields(log.F("signal", sig.String())).Info("Received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, infoText(fmt.Sprintf("Watching %s for label files (Ctrl+C to stop)", dir)))
	fmt.Fprintf(out, "  printer1: %s\n  printer2: %s\n  delete_files: %t\n", cfg.Printer1(), cfg.Printer2(), cfg.DeleteFiles())

	daemon := watch.NewDaemon(dir, store, cfg, printer.NewLPR(cfg.PrintCommand()))
	if err := daemon.Run(ctx); err != nil {
		return err
	}

	status := daemon.Status().Router
	fmt.Fprintln(out, successText(fmt.Sprintf("Stopped. %d job(s) printed, %d failed.", status.Processed, status.Failed)))
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the labelwatch version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "labelwatch %s\n", version)
		},
	}
}
