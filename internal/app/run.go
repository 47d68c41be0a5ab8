package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/dag"
	"github.com/vk/themegrid/internal/executor"
	"github.com/vk/themegrid/internal/registry"
)

// BuildOptions tune a full build.
type BuildOptions struct {
	// Clean removes the destination root before any group runs.
	Clean bool
	// Force runs every task regardless of staleness.
	Force bool
}

// Graph builds the task graph of the pipeline.
func (a *App) Graph(ctx context.Context, clean bool) (*dag.TaskGraph, error) {
	ctx = a.Context(ctx)
	opts := dag.Options{CleanFirst: clean || a.model.Pipeline.CleanFirst}
	return dag.Build(ctx, a.model, opts)
}

func (a *App) executor(graph *dag.TaskGraph, force bool) *executor.Executor {
	return executor.New(graph, a.registry,
		executor.WithConcurrency(a.model.Pipeline.Concurrency),
		executor.WithFingerprints(a.fingerprints),
		executor.WithForce(force),
	)
}

// ensureDests creates every destination directory up front, so an
// unwritable destination fails before any task runs.
func (a *App) ensureDests() error {
	resolver := config.NewResolver(a.model)
	for _, g := range a.model.Groups {
		if _, err := resolver.EnsureDest(g.ID); err != nil {
			return err
		}
	}
	return nil
}

// Build runs a full incremental build. Task failures are reported in the
// returned report; the error is only set when the build could not start.
func (a *App) Build(ctx context.Context, opts BuildOptions) (*executor.BuildReport, error) {
	ctx = a.Context(ctx)
	a.logger.Debug("App.Build method started.", "clean", opts.Clean, "force", opts.Force)

	graph, err := a.Graph(ctx, opts.Clean)
	if err != nil {
		return nil, err
	}
	if err := a.ensureDests(); err != nil {
		return nil, err
	}

	a.logger.Info("🚀 Starting build...", "tasks", graph.Len(), "workers", a.model.Pipeline.Concurrency)
	report, err := a.executor(graph, opts.Force).Run(ctx, nil)
	if err != nil {
		return nil, err
	}
	a.logger.Info("🏁 Build finished.", "summary", report.Summary())
	return report, nil
}

// RunGroups rebuilds the named groups only. Targeted runs are forced: the
// caller asked for these groups explicitly. Upstream groups are not run.
func (a *App) RunGroups(ctx context.Context, ids ...string) (*executor.BuildReport, error) {
	ctx = a.Context(ctx)
	for _, id := range ids {
		if _, ok := a.model.Group(id); !ok {
			return nil, &config.ConfigError{Group: id, Err: config.ErrUnknownGroup}
		}
	}

	graph, err := a.Graph(ctx, false)
	if err != nil {
		return nil, err
	}
	sub, err := graph.Subgraph(ids...)
	if err != nil {
		return nil, err
	}
	if err := a.ensureDests(); err != nil {
		return nil, err
	}

	a.logger.Info("🚀 Running groups...", "groups", ids)
	return a.executor(sub, true).Run(ctx, nil)
}

// Clean removes the destination root.
func (a *App) Clean(ctx context.Context) error {
	ctx = a.Context(ctx)
	root := config.NewResolver(a.model).DestRoot()
	if root == "" {
		return &config.ConfigError{Field: "dest_root", Err: fmt.Errorf("pipeline.dest_root is not set")}
	}
	if err := registry.Clean(ctx, root); err != nil {
		return err
	}
	a.fingerprints.Reset()
	ctxlog.FromContext(ctx).Debug("Fingerprints reset after clean.")
	return nil
}

// PrintGraph writes the tasks in execution order with their dependencies.
func (a *App) PrintGraph(ctx context.Context, w io.Writer, clean bool) error {
	graph, err := a.Graph(ctx, clean)
	if err != nil {
		return err
	}
	order, err := graph.TopologicalOrder()
	if err != nil {
		return err
	}
	for i, t := range order {
		deps, _ := graph.Dependencies(t.ID)
		names := make([]string, 0, len(deps))
		for _, d := range deps {
			names = append(names, d.ID)
		}
		line := fmt.Sprintf("%d. %s -> %s", i+1, t.ID, t.OutputPath())
		if len(names) > 0 {
			line += " (after " + strings.Join(names, ", ") + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
