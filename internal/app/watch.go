package app

import (
	"context"
	"errors"
	"path"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/dag"
	"github.com/vk/themegrid/internal/devserver"
	"github.com/vk/themegrid/internal/fsutil"
	"github.com/vk/themegrid/internal/reload"
	"github.com/vk/themegrid/internal/watcher"
)

// WatchOptions tune watch mode.
type WatchOptions struct {
	BuildOptions
	// Serve starts the development server next to the watch loop.
	Serve bool
	// Source replaces the file system watcher. Tests inject one.
	Source watcher.Source
	// OnCycle is forwarded to the watch loop.
	OnCycle func(watcher.Cycle)
}

// Watch runs an initial build, then rebuilds affected groups on every
// change until ctx is canceled. Task failures never stop the loop.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	ctx = a.Context(ctx)

	initial, err := a.Build(ctx, opts.BuildOptions)
	if err != nil {
		return err
	}

	graph, err := a.Graph(ctx, false)
	if err != nil {
		return err
	}

	source := opts.Source
	if source == nil {
		roots := WatchRoots(graph)
		a.logger.Debug("Watch roots resolved.", "roots", roots)
		fs, err := watcher.NewFSSource(ctx, roots)
		if err != nil {
			return err
		}
		source = fs
	}
	defer source.Close()

	hub := reload.NewHub()
	g, gctx := errgroup.WithContext(ctx)

	if opts.Serve {
		if a.model.Serve.Root == "" {
			return &config.ConfigError{Field: "serve.root", Err: errors.New("nothing to serve: set serve.root or pipeline.dest_root")}
		}
		root := config.NewResolver(a.model).Abs(a.model.Serve.Root)
		sio := reload.NewSocketIO(gctx)
		lr := reload.NewLiveReload(servedOutputs(graph, root))
		hub.AddSink(sio)
		hub.AddSink(lr)

		srv := devserver.New(gctx, devserver.Config{
			Addr:       a.model.Serve.Addr,
			Root:       root,
			SocketIO:   sio,
			LiveReload: lr,
		})
		g.Go(func() error { return srv.Run(gctx) })
	}
	hub.PublishReport(gctx, initial, nil)

	loop := watcher.New(source, graph, a.executor(graph, false), watcher.Options{
		Debounce:  a.model.Pipeline.Debounce,
		Publisher: hub,
		OnCycle:   opts.OnCycle,
	})
	g.Go(func() error { return loop.Run(gctx) })

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// WatchRoots returns the directories to watch: the static bases of every
// source and watch glob plus data file directories. Roots below a
// destination directory are dropped, as are roots nested in another root.
func WatchRoots(graph *dag.TaskGraph) []string {
	var dests []string
	candidates := make(map[string]struct{})
	for _, t := range graph.Tasks() {
		if t.Kind != dag.GroupTask {
			continue
		}
		dests = append(dests, t.DestDir)
		for _, g := range t.Globs() {
			candidates[fsutil.StaticBase(g)] = struct{}{}
		}
		if t.DataFile != "" {
			candidates[path.Dir(t.DataFile)] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(candidates))
	for c := range candidates {
		sorted = append(sorted, c)
	}
	sort.Strings(sorted)

	var roots []string
outer:
	for _, c := range sorted {
		for _, d := range dests {
			if fsutil.WithinDir(c, d) {
				continue outer
			}
		}
		for _, r := range roots {
			if fsutil.WithinDir(c, r) {
				continue outer
			}
		}
		roots = append(roots, c)
	}
	return roots
}

// servedOutputs maps each group to its output path relative to the served
// root. Groups writing outside the root are left out.
func servedOutputs(graph *dag.TaskGraph, root string) map[string]string {
	out := make(map[string]string)
	for _, t := range graph.Tasks() {
		if t.Kind != dag.GroupTask {
			continue
		}
		p := t.OutputPath()
		if !fsutil.WithinDir(p, root) {
			continue
		}
		rel := p[len(root):]
		if rel == "" {
			rel = "/"
		}
		out[t.ID] = rel
	}
	return out
}
