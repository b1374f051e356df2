package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-pdf-filler/internal/config"
	"github.com/a3tai/mcp-pdf-filler/internal/filler"
	"github.com/a3tai/mcp-pdf-filler/internal/mcp"
	"github.com/a3tai/mcp-pdf-filler/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// newLogger builds the process logger. Logs always go to stderr so stdout stays free
// for the MCP protocol in stdio mode and for the summary in fill mode.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		// the MCP client owns the terminal; only report problems
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.IsDebug()}
	return slog.New(slog.NewTextHandler(w, opts))
}

// runFill performs a one-shot fill run and prints its summary to out
func runFill(cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	pdfService, err := pdf.NewService(cfg.MaxFileSize, "", logger)
	if err != nil {
		return err
	}

	rc := cfg.Run()
	result, err := pdfService.PDFFillForms(pdf.PDFFillFormsRequest{
		TemplatePath: rc.TemplatePath,
		RecordsPath:  rc.RecordSetPath,
		LookupPath:   rc.LookupTablePath,
		OutputDir:    rc.OutputDir,
		Password:     rc.Password,
		ReportPath:   rc.ReportPath,
	}, &filler.LogProgress{Logger: logger})
	if err != nil {
		return err
	}

	printSummary(out, result)
	return nil
}

// printSummary writes one line per outcome followed by the run message
func printSummary(out io.Writer, result *pdf.PDFFillFormsResult) {
	summary := result.Summary
	for _, o := range summary.Outcomes {
		fmt.Fprintf(out, "%-18s %s", o.Status, o.OutputPath)
		if o.Status != filler.StatusFilled && o.Message != "" {
			fmt.Fprintf(out, " (%s)", o.Message)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "%s filled=%d skipped=%d failed=%d\n",
		summary.Message,
		summary.Count(filler.StatusFilled),
		summary.Count(filler.StatusSkippedExists)+summary.Count(filler.StatusSkippedDuplicate),
		summary.Count(filler.StatusFailed))
	if result.ReportPath != "" {
		fmt.Fprintf(out, "Report written to %s\n", result.ReportPath)
	}
	if result.ReportError != "" {
		fmt.Fprintf(out, "Report not written: %s\n", result.ReportError)
	}
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *slog.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())
		cancel()

		if err := <-serverErrCh; err != nil {
			logger.Error("server shutdown with error", "error", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped successfully")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, server *mcp.Server, logger *slog.Logger) {
	// the parent process controls our lifecycle; exit when stdin closes
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)
	logger.Debug("starting", "config", cfg.String())

	if cfg.IsFillMode() {
		if err := runFill(cfg, logger, os.Stdout); err != nil {
			logger.Error("fill run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	pdfService, err := pdf.NewService(cfg.MaxFileSize, cfg.BaseDirectory, logger)
	if err != nil {
		logger.Error("failed to create PDF service", "error", err)
		os.Exit(1)
	}

	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server, logger)
	} else {
		runStdioMode(ctx, server, logger)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Filler\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
