package executor

import (
	"context"
	"errors"
	"time"

	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/events"
	"github.com/vk/gridflow/internal/metrics"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "task", n.task.ID)

		if ctx.Err() != nil {
			e.skip(ctx, n, ctx.Err())
			continue
		}
		if !n.claim(running) {
			// Already skipped because an upstream task failed.
			continue
		}

		workerLogger.Debug("Worker picked up task for execution.")
		started := time.Now()
		infos, err := e.runTask(ctx, n.task)
		n.duration = time.Since(started)

		if err != nil {
			workerLogger.Error("Task execution failed.", "error", err)
			n.err = err
			n.state.Store(int32(failed))
			e.metrics.TaskFinished(n.task.Component, metrics.StatusFailed, n.duration)
			e.sink.Emit(ctx, events.Event{
				RunID: e.runID, Type: events.TaskFailed, Task: n.task.ID,
				Component: n.task.Component, Error: err.Error(), Time: time.Now(),
			})
			if e.failFast {
				cancel()
			}
			e.skipDependents(ctx, n)
			e.wg.Done()
			continue
		}

		n.artifacts = infos
		n.state.Store(int32(succeeded))
		e.metrics.TaskFinished(n.task.Component, metrics.StatusSucceeded, n.duration)
		e.sink.Emit(ctx, events.Event{
			RunID: e.runID, Type: events.TaskSucceeded, Task: n.task.ID,
			Component: n.task.Component, Time: time.Now(),
		})

		for _, dependent := range e.dependents(n) {
			if dependent.depCount.Add(-1) == 0 {
				workerLogger.Debug("Unlocking dependent task.", "dependent", dependent.task.ID)
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// skip marks a pending task as skipped, then does the same for everything
// downstream of it.
func (e *Executor) skip(ctx context.Context, n *node, cause error) {
	if !n.claim(skipped) {
		return
	}
	logger := ctxlog.FromContext(ctx)
	logger.Warn("Skipping task.", "task", n.task.ID, "reason", cause)
	n.err = cause
	e.metrics.TaskFinished(n.task.Component, metrics.StatusSkipped, 0)
	e.sink.Emit(ctx, events.Event{
		RunID: e.runID, Type: events.TaskSkipped, Task: n.task.ID,
		Component: n.task.Component, Error: cause.Error(), Time: time.Now(),
	})
	e.wg.Done()
	e.skipDependents(ctx, n)
}

// skipDependents recursively marks all downstream tasks as skipped.
func (e *Executor) skipDependents(ctx context.Context, n *node) {
	for _, dependent := range e.dependents(n) {
		e.skip(ctx, dependent, &SkippedError{Task: dependent.task.ID, Upstream: n.task.ID})
	}
}

// IsSkipped reports whether err marks a task that never ran.
func IsSkipped(err error) bool {
	var s *SkippedError
	return errors.As(err, &s) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
