package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/deepnote/deepnote-sub005/internal/cli"
	"github.com/deepnote/deepnote-sub005/internal/ctxlog"
	"github.com/deepnote/deepnote-sub005/internal/document"
	"github.com/deepnote/deepnote-sub005/internal/engine"
	"github.com/deepnote/deepnote-sub005/internal/fsutil"
)

// main is the entrypoint for the nbrun application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	// Environment overrides (kernel tokens, proxy settings) may live in a
	// local .env file; absence is fine.
	_ = godotenv.Load()

	inv, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	projectPath, err := fsutil.ResolveProjectFile(inv.ProjectPath, ".deepnote")
	if err != nil {
		return err
	}

	logger := cli.NewLogger(inv.LogLevel, inv.LogFormat, outW)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = ctxlog.WithLogger(ctx, logger)

	inv.Engine.OnServerStarting = func() {
		logger.Info("⏳ Starting kernel server...")
	}
	inv.Engine.OnServerReady = func(endpointURL string) {
		logger.Info("✅ Kernel server ready", "endpoint", endpointURL)
	}

	eng := engine.New(inv.Engine)
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if stopErr := eng.Stop(ctx); stopErr != nil {
			logger.Warn("Engine shutdown reported an error.", "error", stopErr)
		}
	}()

	opts := inv.Options
	opts.OnBlockStart = func(block document.Block, index, total int) {
		fmt.Fprintf(outW, "[%d/%d] %s (%s)\n", index+1, total, block.ID, block.Type)
	}
	opts.OnOutput = func(block document.Block, out document.Output) {
		if out.Type == document.OutputTypeStream {
			fmt.Fprint(outW, out.Text)
		}
	}
	opts.OnBlockDone = func(result engine.BlockResult) {
		if result.Success {
			fmt.Fprintf(outW, "    ✓ ok (%s)\n", result.Duration.Round(1e6))
			return
		}
		for _, out := range result.Outputs {
			if out.IsError() {
				fmt.Fprintf(outW, "    ✗ %s: %s\n", out.ErrorName, out.ErrorMessage)
			}
		}
		if result.Err != nil {
			fmt.Fprintf(outW, "    ✗ %v\n", result.Err)
		}
	}

	summary, err := eng.RunFile(ctx, projectPath, &opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(outW, "Executed %d of %d blocks in %s\n",
		summary.ExecutedBlocks, summary.TotalBlocks, summary.TotalDuration.Round(1e6))
	if summary.FailedBlocks > 0 {
		return &cli.ExitError{
			Code:    1,
			Message: fmt.Sprintf("%d block(s) failed", summary.FailedBlocks),
		}
	}
	return nil
}
