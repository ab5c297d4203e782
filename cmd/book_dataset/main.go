// Package main provides the book_dataset binary entry point.
// book_dataset turns page ranges of books into a prompt/completion JSONL
// dataset for fine-tuning a model on an author's style.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"book_dataset/internal/app"
	"book_dataset/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "book_dataset"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// overrides are command-line values that win over the file and environment.
type overrides struct {
	logLevel string
	output   string
	report   string
	workers  int
	stable   bool
}

func rootCmd() *cobra.Command {
	var o overrides

	cmd := &cobra.Command{
		Use:   appName + " <config.yaml>",
		Short: "Build a fine-tuning dataset from books",
		Long: `book_dataset extracts the configured page ranges from PDF, EPUB,
Markdown, HTML and plain-text books, splits them into overlapping chunks
and writes one {"prompt","completion"} record per chunk to a JSONL file,
together with a JSON report of the chunk spans.

Settings come from the YAML file, then BOOK_DATASET_* environment
variables, then flags.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], o)
		},
	}

	cmd.Flags().StringVar(&o.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Dataset file, overrides output_file")
	cmd.Flags().StringVar(&o.report, "report", "", "Report file, overrides report_file")
	cmd.Flags().IntVarP(&o.workers, "workers", "w", 0, "Books processed in parallel, overrides workers")
	cmd.Flags().BoolVar(&o.stable, "stable-order", false, "Write books in configuration order")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func loadConfig(cmd *cobra.Command, path string, o overrides) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputFile = o.output
	}
	if flags.Changed("report") {
		cfg.ReportFile = o.report
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("stable-order") {
		cfg.StableOrder = o.stable
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, configPath string, o overrides) error {
	logger := newLogger(o.logLevel)
	slog.SetDefault(logger)

	cfg, err := loadConfig(cmd, configPath, o)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.Run(ctx)
}
