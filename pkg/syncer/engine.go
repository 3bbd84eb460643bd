// Package syncer reconciles an output directory tree against a tagged subset
// of a Calibre catalog. A pass reads the catalog, diffs it against the
// persisted snapshot cache and the live tree, applies the resulting
// materialize/remove plan with a bounded worker pool, persists the new
// snapshot, and sweeps empty directories.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bjpolzin/calibre2yac/pkg/syncer/cache"
	"github.com/bjpolzin/calibre2yac/pkg/syncer/catalog"
)

// Engine orchestrates sync passes. One Engine serves one (library, output)
// pair; each configured tag is synced by an independent pass.
type Engine struct {
	opts     *Options
	logger   *slog.Logger
	reader   catalog.Reader
	store    cache.Store
	executor *Executor
	hooks    Hooks
}

// NewEngine validates options, resolves defaults for injectable dependencies,
// and prepares the output root. The materialization strategy is resolved here,
// once, and threaded into the executor; an invalid strategy is a fatal
// configuration error rather than a silent per-item no-op.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("%w: Logger implementation (slog.Handler) cannot be nil", ErrConfigValidation)
	}
	logger := slog.New(opts.Logger).With(slog.String("component", "engine"))

	if opts.LibraryPath == "" {
		return nil, fmt.Errorf("%w: library path is required", ErrConfigValidation)
	}
	if info, err := os.Stat(opts.LibraryPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: library path '%s' is not an accessible directory", ErrConfigValidation, opts.LibraryPath)
	}
	if opts.OutputPath == "" {
		return nil, fmt.Errorf("%w: output path is required", ErrConfigValidation)
	}
	if err := os.MkdirAll(opts.OutputPath, 0o755); err != nil {
		return nil, fmt.Errorf("%w: '%s': %w", ErrOutputRoot, opts.OutputPath, err)
	}
	if opts.WorkerCount < 0 {
		return nil, fmt.Errorf("%w: worker count must be >= 0, got %d", ErrConfigValidation, opts.WorkerCount)
	}
	if opts.WorkerCount == 0 {
		opts.WorkerCount = DefaultWorkerCount
	}

	if opts.EventHooks == nil {
		opts.EventHooks = &NoOpHooks{}
	}
	if opts.CacheFilePath == "" {
		opts.CacheFilePath = cacheFilePath(opts.OutputPath)
	}
	if opts.ClearCache {
		if err := os.Remove(opts.CacheFilePath); err != nil && !os.IsNotExist(err) {
			logger.Warn("Could not clear snapshot cache", slog.String("path", opts.CacheFilePath), slog.String("error", err.Error()))
		}
	}

	materializer := opts.Materializer
	if materializer == nil {
		var err error
		materializer, err = NewMaterializer(opts.Strategy)
		if err != nil {
			return nil, err
		}
	}

	reader := opts.CatalogReader
	if reader == nil {
		reader = catalog.NewSQLiteReader(opts.LibraryPath, opts.Logger)
	}
	store := opts.CacheStore
	if store == nil {
		store = cache.NewFileStore(opts.CacheFilePath, opts.Logger)
	}

	return &Engine{
		opts:     &opts,
		logger:   logger,
		reader:   reader,
		store:    store,
		executor: NewExecutor(materializer, opts.WorkerCount, opts.EventHooks, opts.Logger),
		hooks:    opts.EventHooks,
	}, nil
}

// Run syncs every configured tag in sequence. Per-item failures within a pass
// are reported, not propagated; only pass-fatal errors (store unreachable,
// output tree unscannable) abort the run. The reports for all completed
// passes are returned either way.
func (e *Engine) Run(ctx context.Context) ([]Report, error) {
	reports := make([]Report, 0, len(e.opts.Tags))
	for _, tag := range e.opts.Tags {
		report, err := e.SyncTag(ctx, tag)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		if err := ctx.Err(); err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// SyncTag performs one full pass for a single tag selector.
func (e *Engine) SyncTag(ctx context.Context, tag string) (Report, error) {
	start := time.Now()
	e.logger.Info("Starting sync pass",
		slog.String("tag", tag),
		slog.Int("workers", e.opts.WorkerCount),
		slog.Bool("dryRun", e.opts.DryRun))

	current, err := e.reader.Read(ctx, tag)
	if err != nil {
		e.logger.Error("Catalog read failed", slog.String("tag", tag), slog.String("error", err.Error()))
		return Report{}, err
	}

	cached := cache.Snapshot{}
	if !e.opts.IgnoreCacheRead {
		if cached, err = e.store.Load(); err != nil {
			// Load degrades to empty internally; an error here is unexpected
			// but still only costs a full resync.
			e.logger.Warn("Snapshot cache load failed, treating as empty", slog.String("error", err.Error()))
			cached = cache.Snapshot{}
		}
	}

	plan, err := BuildPlan(current, cached, e.opts.LibraryPath, e.opts.OutputPath)
	if err != nil {
		e.logger.Error("Output tree scan failed", slog.String("error", err.Error()))
		return Report{}, fmt.Errorf("%w: output tree scan failed: %w", ErrOutputRoot, err)
	}
	e.logger.Info("Plan ready",
		slog.String("tag", tag),
		slog.Int("materialize", len(plan.Materialize)),
		slog.Int("remove", len(plan.Remove)))
	if hookErr := e.hooks.OnPlanReady(tag, len(plan.Materialize), len(plan.Remove)); hookErr != nil {
		e.logger.Warn("Event hook OnPlanReady failed", slog.String("error", hookErr.Error()))
	}

	var report Report
	if e.opts.DryRun {
		report = e.dryRunReport(tag, current, plan, start)
	} else {
		res := e.executor.Execute(ctx, plan)
		e.persistSnapshot(current, cached, res)
		swept := SweepEmptyDirs(e.opts.OutputPath, e.logger)
		report = e.buildReport(tag, current, res, swept, start)
	}

	e.logger.Info("Sync pass finished",
		slog.String("tag", tag),
		slog.Int("materialized", report.Summary.MaterializedCount),
		slog.Int("removed", report.Summary.RemovedCount),
		slog.Int("failed", report.Summary.FailedCount),
		slog.Duration("duration", time.Since(start)))

	if hookErr := e.hooks.OnPassComplete(report); hookErr != nil {
		e.logger.Warn("Event hook OnPassComplete failed", slog.String("error", hookErr.Error()))
	}
	return report, nil
}

// persistSnapshot writes the post-pass snapshot. An item whose materialization
// failed keeps its prior cache entry (or stays absent), so the next pass
// re-plans it; only work that actually succeeded is recorded as synced.
// Removal failures never affect entries: the orphan is found again by the next
// pass's scan.
func (e *Engine) persistSnapshot(current map[int64]catalog.Item, prior cache.Snapshot, res ExecResult) {
	snap := make(cache.Snapshot, len(current))
	for id, item := range current {
		key := strconv.FormatInt(id, 10)
		if _, failed := res.FailedItems[id]; failed {
			if prev, ok := prior[key]; ok {
				snap[key] = prev
			}
			continue
		}
		snap[key] = item
	}
	if err := e.store.Save(snap); err != nil {
		// Not fatal: the stale snapshot only means redundant work next pass.
		e.logger.Error("Snapshot cache save failed", slog.String("error", err.Error()))
	}
}

func (e *Engine) buildReport(tag string, current map[int64]catalog.Item, res ExecResult, swept int, start time.Time) Report {
	summary := ReportSummary{
		Tag:           tag,
		LibraryPath:   e.opts.LibraryPath,
		OutputPath:    e.opts.OutputPath,
		ItemCount:     len(current),
		FailedCount:   len(res.Errors),
		SweptDirCount: swept,
		Strategy:      string(e.opts.Strategy),
		WorkerCount:   e.opts.WorkerCount,
		DryRun:        false,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: ReportSchemaVersion,
	}
	for _, op := range res.Operations {
		switch {
		case op.Kind == OpMaterialize && op.Status == StatusMaterialized:
			summary.MaterializedCount++
		case op.Kind == OpRemove && op.Status == StatusRemoved:
			summary.RemovedCount++
		}
	}
	summary.DurationSeconds = time.Since(start).Seconds()
	return Report{Summary: summary, Operations: res.Operations, Errors: res.Errors}
}

// dryRunReport reports the plan as pending operations without touching the
// tree, the cache, or empty directories.
func (e *Engine) dryRunReport(tag string, current map[int64]catalog.Item, plan Plan, start time.Time) Report {
	ops := make([]OpInfo, 0, len(plan.Materialize)+len(plan.Remove))
	for _, op := range plan.Materialize {
		ops = append(ops, opInfo(op, StatusPending, 0))
	}
	for _, path := range plan.Remove {
		ops = append(ops, OpInfo{Kind: OpRemove, Target: path, Status: StatusPending})
	}
	return Report{
		Summary: ReportSummary{
			Tag:             tag,
			LibraryPath:     e.opts.LibraryPath,
			OutputPath:      e.opts.OutputPath,
			ItemCount:       len(current),
			Strategy:        string(e.opts.Strategy),
			WorkerCount:     e.opts.WorkerCount,
			DryRun:          true,
			DurationSeconds: time.Since(start).Seconds(),
			Timestamp:       time.Now().UTC(),
			SchemaVersion:   ReportSchemaVersion,
		},
		Operations: ops,
	}
}

// cacheFilePath resolves the fixed snapshot cache location under the output root.
func cacheFilePath(outputRoot string) string {
	return filepath.Join(outputRoot, CacheFileName)
}
