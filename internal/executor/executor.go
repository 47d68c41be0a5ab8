// Package executor runs the stale subset of a task graph.
//
// A run first plans: every task's inputs are fingerprinted and compared to
// what the previous successful run recorded, and staleness propagates to
// every transitive dependent. The graph is then walked by a bounded worker
// pool. Tasks become ready once all their dependencies have completed;
// stale tasks are invoked, the others are reported as skipped. A failed
// task marks its dependents as failed with an *UpstreamFailure without
// invoking them, while unrelated branches keep running.
package executor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/dag"
	"github.com/vk/themegrid/internal/fingerprint"
)

// Runner invokes a single task and returns the outputs it wrote or
// confirmed as up to date.
type Runner interface {
	RunTask(ctx context.Context, t *dag.Task) ([]string, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, t *dag.Task) ([]string, error)

// RunTask calls f.
func (f RunnerFunc) RunTask(ctx context.Context, t *dag.Task) ([]string, error) {
	return f(ctx, t)
}

// Executor is responsible for orchestrating the incremental execution of a
// task graph. It is safe to call Run repeatedly, but not concurrently.
type Executor struct {
	graph        *dag.TaskGraph
	runner       Runner
	fingerprints *fingerprint.Table
	numWorkers   int
	force        bool

	byID map[string]*node
	wg   sync.WaitGroup
	now  func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithConcurrency bounds the worker pool. Values below 1 select GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.numWorkers = n
		}
	}
}

// WithFingerprints shares a fingerprint table, e.g. between the executors
// of targeted runs and the watch loop.
func WithFingerprints(t *fingerprint.Table) Option {
	return func(e *Executor) {
		if t != nil {
			e.fingerprints = t
		}
	}
}

// WithForce makes every task stale.
func WithForce(force bool) Option {
	return func(e *Executor) { e.force = force }
}

// New creates a new Executor.
func New(graph *dag.TaskGraph, runner Runner, opts ...Option) *Executor {
	e := &Executor{
		graph:        graph,
		runner:       runner,
		fingerprints: fingerprint.NewTable(),
		numWorkers:   runtime.GOMAXPROCS(0),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fingerprints returns the table the executor records into.
func (e *Executor) Fingerprints() *fingerprint.Table {
	return e.fingerprints
}

// Run executes the stale tasks of the graph. A nil change set makes every
// task a candidate, whose staleness is then decided by its fingerprint. The
// returned error is only set when planning itself failed; task failures
// are reported in the BuildReport.
func (e *Executor) Run(ctx context.Context, cs ChangeSet) (*BuildReport, error) {
	logger := ctxlog.FromContext(ctx)
	started := e.now()

	order, err := e.graph.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	tasks := e.graph.Tasks()
	nodes := make([]*node, 0, len(tasks))
	e.byID = make(map[string]*node, len(tasks))
	for _, t := range tasks {
		n := newNode(t)
		nodes = append(nodes, n)
		e.byID[t.ID] = n
	}
	for _, n := range nodes {
		deps, _ := e.graph.Dependencies(n.task.ID)
		for _, d := range deps {
			dn := e.byID[d.ID]
			n.deps = append(n.deps, dn)
			dn.dependents = append(dn.dependents, n)
		}
		n.depCount.Store(int32(len(n.deps)))
	}

	if err := e.plan(ctx, nodes, cs); err != nil {
		return nil, err
	}

	readyChan := make(chan *node, len(nodes))
	logger.Debug("Initializing executor, finding root tasks...")
	// Roots are queued in topological order, which is declaration order
	// for tasks without dependencies.
	for _, t := range order {
		if n := e.byID[t.ID]; n.depCount.Load() == 0 {
			readyChan <- n
		}
	}

	e.wg.Add(len(nodes))
	workers := e.numWorkers
	if workers > len(nodes) {
		workers = len(nodes)
	}
	logger.Debug("Starting worker pool.", "workers", workers)
	for i := 0; i < workers; i++ {
		go e.worker(ctx, readyChan, i)
	}

	e.wg.Wait()
	close(readyChan)

	report := &BuildReport{Started: started, Duration: e.now().Sub(started)}
	for _, n := range nodes {
		report.Results = append(report.Results, n.result)
	}
	e.record(nodes)

	logger.Info("Build finished.", "summary", report.Summary(), "duration", report.Duration)
	return report, nil
}

// record updates the fingerprint table after the pool has drained.
func (e *Executor) record(nodes []*node) {
	for _, n := range nodes {
		switch n.result.Status {
		case Succeeded:
			// The worker already stored the post-upstream fingerprint.
		case Skipped:
			if n.seeded {
				e.fingerprints.Put(n.task.ID, fingerprint.Record{
					Fingerprint: n.fp,
					Outputs:     n.seedOutputs,
					LastRun:     e.now(),
				})
			}
		case Failed:
			rec, _ := e.fingerprints.Get(n.task.ID)
			rec.Failed = true
			e.fingerprints.Put(n.task.ID, rec)
		}
	}
}
