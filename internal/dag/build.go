package dag

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/fsutil"
)

// Options tune graph construction.
type Options struct {
	// CleanFirst adds the synthetic clean task as a root preceding every writer.
	CleanFirst bool
}

// Build constructs a complete, validated task graph from a config model.
func Build(ctx context.Context, model *config.Model, opts Options) (*TaskGraph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "groups", len(model.Groups))

	resolver := config.NewResolver(model)
	graph := New()

	// First pass: create a task per group.
	for i, g := range model.Groups {
		res, err := resolver.Resolve(g.ID)
		if err != nil {
			return nil, err
		}
		t, err := newGroupTask(i, g, res)
		if err != nil {
			return nil, err
		}
		if err := graph.AddTask(t); err != nil {
			return nil, &config.ConfigError{Group: g.ID, Field: "group", Err: err}
		}
	}
	logger.Debug("Build: Task creation complete.", "task_count", graph.Len())

	// Second pass: link dependencies.
	if err := linkTasks(ctx, graph, model); err != nil {
		return nil, err
	}

	if opts.CleanFirst {
		if err := addCleanTask(graph, resolver.DestRoot()); err != nil {
			return nil, err
		}
		logger.Debug("Build: Clean task added.")
	}

	if _, err := graph.TopologicalOrder(); err != nil {
		return nil, err
	}
	logger.Debug("Build: Graph construction successful.", "task_count", graph.Len())
	return graph, nil
}

func newGroupTask(order int, g *config.AssetGroup, res config.Resolved) (*Task, error) {
	t := &Task{
		ID:          g.ID,
		Kind:        GroupTask,
		Order:       order,
		SourceGlobs: res.SourceGlobs,
		WatchGlobs:  res.WatchGlobs,
		DataFile:    res.DataFile,
		DestDir:     res.DestDir,
		OutputFile:  strings.Trim(g.Option("output", ""), "/"),
	}
	m, err := fsutil.NewMatcher(t.Globs()...)
	if err != nil {
		return nil, &config.ConfigError{Group: g.ID, Field: "sources", Err: err}
	}
	t.matcher = m
	return t, nil
}

func addCleanTask(graph *TaskGraph, destRoot string) error {
	if destRoot == "" {
		return &config.ConfigError{Field: "dest_root", Err: fmt.Errorf("the clean task needs pipeline.dest_root")}
	}
	writers := graph.Tasks()
	clean := &Task{ID: config.CleanTaskID, Kind: CleanTask, Order: -1, DestDir: destRoot}
	if err := graph.AddTask(clean); err != nil {
		return &config.ConfigError{Field: "group", Err: err}
	}
	for _, w := range writers {
		if err := graph.AddEdge(clean.ID, w.ID); err != nil {
			return err
		}
	}
	return nil
}

// linkTasks inserts the edges between group tasks.
func linkTasks(ctx context.Context, graph *TaskGraph, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	tasks := graph.Tasks()

	for _, g := range model.Groups {
		for _, dep := range g.DependsOn {
			if err := graph.AddEdge(dep, g.ID); err != nil {
				return &config.ConfigError{Group: g.ID, Field: "depends_on", Err: err}
			}
			logger.Debug("Linked explicit dependency.", "task", g.ID, "dependency", dep)
		}
	}

	for _, reader := range tasks {
		for _, writer := range tasks {
			if reader == writer || !readsFrom(reader, writer.DestDir) {
				continue
			}
			if err := graph.AddEdge(writer.ID, reader.ID); err != nil {
				return err
			}
			logger.Debug("Linked implicit dependency.", "task", reader.ID, "dependency", writer.ID)
		}
	}

	// Tasks writing the same output run in declaration order, unless an
	// existing path already orders them.
	for i, a := range tasks {
		for _, b := range tasks[i+1:] {
			if a.Kind != GroupTask || b.Kind != GroupTask || !outputsOverlap(a, b) {
				continue
			}
			graph.mutex.RLock()
			ordered := graph.reaches(a, b) || graph.reaches(b, a)
			graph.mutex.RUnlock()
			if ordered {
				continue
			}
			if err := graph.AddEdge(a.ID, b.ID); err != nil {
				return err
			}
			logger.Debug("Sequenced tasks sharing an output.", "first", a.ID, "second", b.ID, "output", b.OutputPath())
		}
	}
	return nil
}

// readsFrom reports whether any source, watch or data input of t can match
// a file below dest.
func readsFrom(t *Task, dest string) bool {
	if t.DataFile != "" && fsutil.WithinDir(t.DataFile, dest) {
		return true
	}
	for _, pattern := range t.Globs() {
		if globReaches(pattern, dest) {
			return true
		}
	}
	return false
}

// globReaches reports whether pattern can match a file below dest.
func globReaches(pattern, dest string) bool {
	base := fsutil.StaticBase(pattern)
	if fsutil.WithinDir(base, dest) {
		return true
	}
	if !fsutil.WithinDir(dest, base) {
		return false
	}
	rest := strings.TrimPrefix(pattern[len(base):], "/")
	if strings.Contains(rest, "**") {
		return true
	}
	// Without `**` the glob only matches files at a fixed depth below
	// its base; dest files sit at least one level below dest.
	destDepth := 0
	if rel := strings.TrimPrefix(dest[len(base):], "/"); rel != "" {
		destDepth = len(strings.Split(rel, "/"))
	}
	return len(strings.Split(rest, "/")) > destDepth && restPrefixMatches(pattern, base, dest)
}

// restPrefixMatches checks that the directory segments of pattern leading
// to dest could match dest itself.
func restPrefixMatches(pattern, base, dest string) bool {
	rel := strings.TrimPrefix(dest[len(base):], "/")
	if rel == "" {
		return true
	}
	segs := strings.Split(strings.TrimPrefix(pattern[len(base):], "/"), "/")
	relSegs := strings.Split(rel, "/")
	prefix := path.Join(append([]string{base}, segs[:len(relSegs)]...)...)
	m, err := fsutil.NewMatcher(prefix)
	if err != nil {
		return true
	}
	return m.Match(dest)
}

// outputsOverlap reports whether a and b may write the same file. A group
// with an `output` option writes exactly that file; any other group writes
// the files of OutputGlobs.
func outputsOverlap(a, b *Task) bool {
	switch {
	case a.OutputFile != "" && b.OutputFile != "":
		return a.OutputPath() == b.OutputPath()
	case a.OutputFile != "":
		return writesFile(b, a.OutputPath())
	case b.OutputFile != "":
		return writesFile(a, b.OutputPath())
	}
	return writesBelow(a, b.DestDir) && writesBelow(b, a.DestDir)
}

func writesFile(t *Task, file string) bool {
	for _, pattern := range t.OutputGlobs() {
		m, err := fsutil.NewMatcher(pattern)
		if err != nil || m.Match(file) {
			return true
		}
	}
	return false
}

func writesBelow(t *Task, dest string) bool {
	for _, pattern := range t.OutputGlobs() {
		if globReaches(pattern, dest) {
			return true
		}
	}
	return false
}
