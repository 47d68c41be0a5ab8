package executor

import (
	"context"
	"errors"
	"time"

	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/dag"
	"github.com/vk/themegrid/internal/fingerprint"
)

// stageError is implemented by errors naming the failed stage of a chain.
type stageError interface {
	FailedStage() string
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *node, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "task", n.task.ID)

		if !n.stale {
			workerLogger.Debug("Task is up to date, skipping.", "reason", n.reason)
			e.finish(n, RunResult{Task: n.task.ID, Status: Skipped, Reason: n.reason})
			e.unlockDependents(readyChan, n)
			continue
		}

		if err := ctx.Err(); err != nil {
			workerLogger.Warn("Context canceled, not running task.")
			e.finish(n, RunResult{Task: n.task.ID, Status: Failed, Reason: n.reason, Err: err})
			e.skipDependents(ctx, n, n)
			continue
		}

		workerLogger.Info("▶️ Running task", "reason", n.reason)
		n.setState(Running)
		start := time.Now()

		fp := n.fp
		if n.task.Kind == dag.GroupTask && len(n.deps) > 0 {
			// Upstream tasks may have rewritten our inputs since planning.
			if inputs, err := Inputs(n.task); err == nil {
				if fresh, err := fingerprint.Compute(inputs); err == nil {
					fp = fresh
				}
			}
		}

		outputs, err := e.runner.RunTask(ctx, n.task)
		elapsed := time.Since(start)

		if err != nil {
			attrs := []any{"group", n.task.ID}
			var se stageError
			if errors.As(err, &se) {
				attrs = append(attrs, "stage", se.FailedStage())
			}
			workerLogger.Error("Task failed.", append(attrs, "error", err, "duration", elapsed)...)
			e.finish(n, RunResult{Task: n.task.ID, Status: Failed, Reason: n.reason, Err: err, Duration: elapsed})
			e.skipDependents(ctx, n, n)
			continue
		}

		if n.task.Kind == dag.GroupTask {
			e.fingerprints.Put(n.task.ID, fingerprint.Record{Fingerprint: fp, Outputs: outputs, LastRun: start})
		} else {
			e.fingerprints.Put(n.task.ID, fingerprint.Record{LastRun: start})
		}

		workerLogger.Info("✅ Finished task", "duration", elapsed, "outputs", len(outputs))
		e.finish(n, RunResult{Task: n.task.ID, Status: Succeeded, Reason: n.reason, Duration: elapsed, Outputs: outputs})
		e.unlockDependents(readyChan, n)
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// finish stores the result of a node and marks it done exactly once.
func (e *Executor) finish(n *node, res RunResult) {
	n.doneOnce.Do(func() {
		n.result = res
		n.setState(res.Status)
		e.wg.Done()
	})
}

// unlockDependents queues every dependent whose dependencies have all
// completed successfully or were skipped.
func (e *Executor) unlockDependents(readyChan chan *node, n *node) {
	for _, d := range n.dependents {
		if d.depCount.Add(-1) == 0 {
			readyChan <- d
		}
	}
}

// skipDependents recursively marks all downstream nodes as failed without
// invoking them. cause is the task whose failure started the cascade.
func (e *Executor) skipDependents(ctx context.Context, n, cause *node) {
	logger := ctxlog.FromContext(ctx)
	for _, d := range n.dependents {
		if d.getState() != Pending {
			continue
		}
		logger.Warn("Skipping dependent task due to upstream failure.", "task", d.task.ID, "upstream", cause.task.ID)
		e.finish(d, RunResult{
			Task:   d.task.ID,
			Status: Failed,
			Reason: d.reason,
			Err:    &UpstreamFailure{Task: d.task.ID, Upstream: cause.task.ID},
		})
		e.skipDependents(ctx, d, cause)
	}
}
