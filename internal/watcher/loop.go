package watcher

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/dag"
	"github.com/vk/themegrid/internal/executor"
	"github.com/vk/themegrid/internal/fsutil"
)

// State is the state of the loop.
type State int32

const (
	Idle State = iota
	Debouncing
	Running
)

func (s State) String() string {
	switch s {
	case Debouncing:
		return "debouncing"
	case Running:
		return "running"
	default:
		return "idle"
	}
}

// Builder runs one incremental build. *executor.Executor satisfies it.
type Builder interface {
	Run(ctx context.Context, cs executor.ChangeSet) (*executor.BuildReport, error)
}

// Publisher receives the outcome of every cycle. *reload.Hub satisfies it.
type Publisher interface {
	PublishReport(ctx context.Context, report *executor.BuildReport, changed []string)
}

// Cycle is the outcome of one run.
type Cycle struct {
	Changes []string
	Report  *executor.BuildReport
	Err     error
}

// Options configure a Loop.
type Options struct {
	// Debounce is the quiet period before a cycle starts.
	Debounce time.Duration
	// Publisher is notified after every cycle. Optional.
	Publisher Publisher
	// OnCycle is called after every cycle, on the loop goroutine. Optional.
	OnCycle func(Cycle)
}

// Loop is the watch loop. It is driven by a single goroutine.
type Loop struct {
	source  Source
	graph   *dag.TaskGraph
	builder Builder
	opts    Options
	// outputs are the destination directories; events below them come from
	// the build itself.
	outputs []string
	state   atomic.Int32
}

// New creates a loop.
func New(source Source, graph *dag.TaskGraph, builder Builder, opts Options) *Loop {
	if opts.Debounce <= 0 {
		opts.Debounce = config.DefaultDebounce
	}
	l := &Loop{source: source, graph: graph, builder: builder, opts: opts}
	for _, t := range graph.Tasks() {
		if t.Kind == dag.GroupTask {
			l.outputs = append(l.outputs, t.DestDir)
		}
	}
	return l
}

// State returns the current state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

func (l *Loop) setState(ctx context.Context, s State) {
	if State(l.state.Swap(int32(s))) != s {
		ctxlog.FromContext(ctx).Debug("Watch loop state changed.", "state", s.String())
	}
}

// Relevant reports whether a changed path is an input of any task and not
// an output of the build itself.
func (l *Loop) Relevant(p string) bool {
	for _, out := range l.outputs {
		if fsutil.WithinDir(p, out) {
			return false
		}
	}
	return len(l.graph.Affected([]string{p})) > 0
}

// Run processes events until ctx is cancelled or the source closes. A run
// in progress is awaited before returning.
func (l *Loop) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Info("👀 Watching for changes", "debounce", l.opts.Debounce)

	pending := executor.NewChangeSet()
	results := make(chan Cycle, 1)
	running := false
	followUp := false

	errs := l.source.Errors()
	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	start := func() {
		cs := pending
		pending = executor.NewChangeSet()
		running = true
		l.setState(ctx, Running)
		logger.Info("🔁 Rebuilding", "changes", len(cs))
		go func() {
			report, err := l.builder.Run(ctx, cs)
			results <- Cycle{Changes: cs.Paths(), Report: report, Err: err}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			if running {
				<-results
			}
			l.setState(ctx, Idle)
			return nil

		case p, ok := <-l.source.Events():
			if !ok {
				if running {
					running = false
					l.finish(ctx, <-results)
				}
				// Changes collected before the close still get their build.
				if len(pending) > 0 {
					start()
					running = false
					l.finish(ctx, <-results)
				}
				l.setState(ctx, Idle)
				return nil
			}
			if !l.Relevant(p) {
				logger.Debug("Ignoring change.", "path", p)
				continue
			}
			pending.Add(p)
			if running {
				followUp = true
				continue
			}
			if timer == nil {
				timer = time.NewTimer(l.opts.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(l.opts.Debounce)
			}
			l.setState(ctx, Debouncing)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("Watcher error.", "error", err)

		case <-timerC:
			timer, timerC = nil, nil
			start()

		case c := <-results:
			running = false
			l.finish(ctx, c)
			if followUp && len(pending) > 0 {
				followUp = false
				start()
				continue
			}
			followUp = false
			l.setState(ctx, Idle)
		}
	}
}

func (l *Loop) finish(ctx context.Context, c Cycle) {
	logger := ctxlog.FromContext(ctx)
	if c.Err != nil {
		logger.Error("Rebuild could not start.", "error", c.Err)
	} else if l.opts.Publisher != nil {
		l.opts.Publisher.PublishReport(ctx, c.Report, c.Changes)
	}
	if l.opts.OnCycle != nil {
		l.opts.OnCycle(c)
	}
}
