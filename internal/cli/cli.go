// Package cli orchestrates the application after configuration loading: it
// wires the engine, the event hooks, and optionally the TUI or the library
// watcher, and prints the final reports.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bjpolzin/calibre2yac/internal/cli/hooks"
	"github.com/bjpolzin/calibre2yac/internal/cli/ui"
	"github.com/bjpolzin/calibre2yac/internal/cli/watch"
	"github.com/bjpolzin/calibre2yac/pkg/syncer"
)

// programSender adapts *tea.Program to the hooks.TUIProgram interface.
type programSender struct {
	program *tea.Program
}

func (s programSender) Send(msg interface{}) { s.program.Send(msg) }

// Run executes the sync according to the validated options: one run of all
// configured tags, or repeated runs in watch mode. Per-item failures are
// reported in the output and do not produce an error; only fatal conditions
// (unreadable catalog, unscannable output tree) do.
func Run(ctx context.Context, opts syncer.Options, logger *slog.Logger) error {
	if opts.WatchMode {
		return runWatch(ctx, opts, logger)
	}

	reports, err := runPasses(ctx, opts, logger)
	if printErr := printReports(os.Stdout, reports, opts.OutputFormat); printErr != nil {
		logger.Error("Failed to render report", slog.String("error", printErr.Error()))
		if err == nil {
			err = printErr
		}
	}
	if errors.Is(err, context.Canceled) {
		logger.Warn("Run interrupted")
		return err
	}
	return err
}

// runPasses builds the engine and runs one pass per tag, behind the TUI when
// it is enabled.
func runPasses(ctx context.Context, opts syncer.Options, logger *slog.Logger) ([]syncer.Report, error) {
	if !opts.TuiEnabled {
		opts.EventHooks = hooks.NewCLIHooks(logger, false, nil)
		engine, err := syncer.NewEngine(opts)
		if err != nil {
			return nil, err
		}
		return engine.Run(ctx)
	}

	model := ui.NewModel()
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	opts.EventHooks = hooks.NewCLIHooks(logger, true, programSender{program})

	engine, err := syncer.NewEngine(opts)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type runResult struct {
		reports []syncer.Report
		err     error
	}
	resCh := make(chan runResult, 1)
	go func() {
		reports, runErr := engine.Run(runCtx)
		resCh <- runResult{reports: reports, err: runErr}
		program.Send(ui.RunDoneMsg{})
	}()

	if _, teaErr := program.Run(); teaErr != nil && !errors.Is(teaErr, tea.ErrProgramKilled) {
		logger.Warn("TUI exited with error", slog.String("error", teaErr.Error()))
	}
	// Quitting the TUI (q, ctrl+c) cancels any passes still running.
	cancel()
	res := <-resCh
	return res.reports, res.err
}

// runWatch performs an initial run and then re-runs all passes whenever the
// catalog database changes, after a debounce window. It returns only on
// context cancellation or a watcher setup failure; pass errors are logged and
// the watch continues.
func runWatch(ctx context.Context, opts syncer.Options, logger *slog.Logger) error {
	// Watch mode runs unattended; the interactive view stays off.
	opts.TuiEnabled = false
	opts.EventHooks = hooks.NewCLIHooks(logger, false, nil)

	engine, err := syncer.NewEngine(opts)
	if err != nil {
		return err
	}

	runPass := func() {
		reports, runErr := engine.Run(ctx)
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			logger.Error("Sync run failed", slog.String("error", runErr.Error()))
		}
		if printErr := printReports(os.Stdout, reports, opts.OutputFormat); printErr != nil {
			logger.Error("Failed to render report", slog.String("error", printErr.Error()))
		}
	}
	runPass()

	watcher, err := watch.NewLibraryWatcher(opts.LibraryPath)
	if err != nil {
		return err
	}
	defer watcher.Close()

	logger.Info("Watching library for catalog changes",
		slog.String("library", opts.LibraryPath),
		slog.Duration("debounce", opts.WatchDebounce))

	var debounce *time.Timer
	var debounceC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch mode stopped")
			return nil

		case _, ok := <-watcher.Changes():
			if !ok {
				return nil
			}
			logger.Debug("Catalog change detected, debouncing",
				slog.Duration("debounce", opts.WatchDebounce))
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.NewTimer(opts.WatchDebounce)
			debounceC = debounce.C

		case watchErr, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			logger.Warn("Library watcher error", slog.String("error", watchErr.Error()))

		case <-debounceC:
			debounce = nil
			debounceC = nil
			runPass()
		}
	}
}

// printReports renders each pass report in the configured format.
func printReports(w io.Writer, reports []syncer.Report, format syncer.OutputFormat) error {
	for _, report := range reports {
		rendered, err := report.Render(format)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, rendered); err != nil {
			return err
		}
	}
	return nil
}
