package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// ExecResult collects the outcome of executing a plan. FailedItems carries the
// ids of items with at least one failed materialization, so the cache writer
// can keep their prior entries and retry them on the next pass.
type ExecResult struct {
	Operations  []OpInfo
	Errors      []ErrorInfo
	FailedItems map[int64]struct{}
}

// Executor applies a plan with a bounded worker pool. Materializations run
// first; removals begin only after the materialization barrier. Individual
// operation failures are logged and collected, never aborting siblings.
type Executor struct {
	materializer Materializer
	workers      int
	hooks        Hooks
	logger       *slog.Logger
}

// NewExecutor creates an Executor. The materializer is the already-validated
// strategy implementation; workers below 1 fall back to the default pool width.
func NewExecutor(materializer Materializer, workers int, hooks Hooks, loggerHandler slog.Handler) *Executor {
	if loggerHandler == nil {
		loggerHandler = slog.NewTextHandler(io.Discard, nil)
	}
	if hooks == nil {
		hooks = &NoOpHooks{}
	}
	if workers < 1 {
		workers = DefaultWorkerCount
	}
	return &Executor{
		materializer: materializer,
		workers:      workers,
		hooks:        hooks,
		logger:       slog.New(loggerHandler).With(slog.String("component", "executor")),
	}
}

// Execute runs both phases of the plan and returns the collected results.
func (e *Executor) Execute(ctx context.Context, plan Plan) ExecResult {
	res := ExecResult{FailedItems: make(map[int64]struct{})}
	var mu sync.Mutex

	e.runPhase(ctx, len(plan.Materialize), func(i int) {
		op := plan.Materialize[i]
		start := time.Now()
		err := e.materialize(op)
		elapsed := time.Since(start)

		mu.Lock()
		if err != nil {
			e.logger.Error("Materialization failed",
				slog.String("target", op.Target), slog.String("error", err.Error()))
			res.Operations = append(res.Operations, opInfo(op, StatusFailed, elapsed))
			res.Errors = append(res.Errors, ErrorInfo{Kind: OpMaterialize, Target: op.Target, ItemID: op.ItemID, Error: err.Error()})
			res.FailedItems[op.ItemID] = struct{}{}
		} else {
			e.logger.Info("Materialized",
				slog.String("target", op.Target), slog.String("strategy", e.materializer.Name()))
			res.Operations = append(res.Operations, opInfo(op, StatusMaterialized, elapsed))
		}
		mu.Unlock()

		status := StatusMaterialized
		msg := ""
		if err != nil {
			status = StatusFailed
			msg = err.Error()
		}
		if hookErr := e.hooks.OnOpStatusUpdate(op.Target, OpMaterialize, status, msg, elapsed); hookErr != nil {
			e.logger.Warn("Event hook OnOpStatusUpdate failed", slog.String("error", hookErr.Error()))
		}
	})

	// Materialization barrier passed; removals operate on a disjoint path set.
	e.runPhase(ctx, len(plan.Remove), func(i int) {
		path := plan.Remove[i]
		start := time.Now()
		err := os.Remove(path)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrRemove, err)
		}
		elapsed := time.Since(start)

		mu.Lock()
		if err != nil {
			e.logger.Error("Removal failed", slog.String("path", path), slog.String("error", err.Error()))
			res.Operations = append(res.Operations, OpInfo{Kind: OpRemove, Target: path, Status: StatusFailed, DurationMs: elapsed.Milliseconds()})
			res.Errors = append(res.Errors, ErrorInfo{Kind: OpRemove, Target: path, Error: err.Error()})
		} else {
			e.logger.Info("Removed", slog.String("path", path))
			res.Operations = append(res.Operations, OpInfo{Kind: OpRemove, Target: path, Status: StatusRemoved, DurationMs: elapsed.Milliseconds()})
		}
		mu.Unlock()

		status := StatusRemoved
		msg := ""
		if err != nil {
			status = StatusFailed
			msg = err.Error()
		}
		if hookErr := e.hooks.OnOpStatusUpdate(path, OpRemove, status, msg, elapsed); hookErr != nil {
			e.logger.Warn("Event hook OnOpStatusUpdate failed", slog.String("error", hookErr.Error()))
		}
	})

	return res
}

// runPhase dispatches n indexed jobs across the worker pool and blocks until
// all of them complete (the per-phase synchronization barrier).
func (e *Executor) runPhase(ctx context.Context, n int, job func(i int)) {
	if n == 0 {
		return
	}
	jobs := make(chan int, e.workers)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				job(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			// Stop dispatching; in-flight jobs run to completion.
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

// materialize ensures the target directory exists (tolerating concurrent
// creation of shared ancestors) and applies the strategy.
func (e *Executor) materialize(op MaterializeOp) error {
	if err := EnsureDir(op.Target); err != nil {
		return fmt.Errorf("%w: %w", ErrMaterialize, err)
	}
	if err := e.materializer.Materialize(op.Source, op.Target); err != nil {
		return fmt.Errorf("%w: %w", ErrMaterialize, err)
	}
	return nil
}

func opInfo(op MaterializeOp, status Status, elapsed time.Duration) OpInfo {
	return OpInfo{
		Kind:       OpMaterialize,
		Target:     op.Target,
		Source:     op.Source,
		ItemID:     op.ItemID,
		Format:     op.Format,
		Status:     status,
		DurationMs: elapsed.Milliseconds(),
	}
}
