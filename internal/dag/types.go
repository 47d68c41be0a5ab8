package dag

import (
	"path"
	"strings"
	"sync"

	"github.com/vk/themegrid/internal/fsutil"
)

// Kind distinguishes group tasks from the synthetic clean task.
type Kind int

const (
	// GroupTask runs the transform chain of one asset group.
	GroupTask Kind = iota
	// CleanTask removes the destination tree before any writer runs.
	CleanTask
)

func (k Kind) String() string {
	if k == CleanTask {
		return "clean"
	}
	return "group"
}

// Task is a single vertex of the graph.
type Task struct {
	ID   string
	Kind Kind
	// Order is the declaration order; the clean task sorts before everything.
	Order       int
	SourceGlobs []string
	WatchGlobs  []string
	DataFile    string
	DestDir     string
	// OutputFile is the single file the task writes below DestDir, when the
	// group bundles its sources into one.
	OutputFile string

	// deps holds the tasks this task depends on (predecessors).
	deps map[string]*Task
	// dependents holds the tasks that depend on this task (successors).
	dependents map[string]*Task
	matcher    *fsutil.Matcher
}

// OutputPath returns the absolute output file, or the destination
// directory when the task writes many files.
func (t *Task) OutputPath() string {
	if t.OutputFile == "" {
		return t.DestDir
	}
	return path.Join(t.DestDir, t.OutputFile)
}

// OutputGlobs returns patterns covering the files a group without an
// `output` option writes: each source glob rebased onto DestDir. The
// extension of the last segment is left open since transforms may change
// it.
func (t *Task) OutputGlobs() []string {
	if t.OutputFile != "" {
		return []string{t.OutputPath()}
	}
	out := make([]string, 0, len(t.SourceGlobs))
	for _, pattern := range t.SourceGlobs {
		rest := fsutil.RelToBase(pattern, fsutil.StaticBase(pattern))
		dir, name := path.Split(rest)
		switch dot := strings.LastIndex(name, "."); {
		case strings.ContainsAny(name, "{}"):
			name = "*"
		case dot > 0:
			name = name[:dot] + ".*"
		}
		out = append(out, path.Join(t.DestDir, dir, name))
	}
	return out
}

// Globs returns the source and watch globs of the task.
func (t *Task) Globs() []string {
	out := make([]string, 0, len(t.SourceGlobs)+len(t.WatchGlobs))
	out = append(out, t.SourceGlobs...)
	return append(out, t.WatchGlobs...)
}

// Matches reports whether a changed path is an input of the task.
func (t *Task) Matches(p string) bool {
	if t.DataFile != "" && p == t.DataFile {
		return true
	}
	return t.matcher.Match(p)
}

// TaskGraph is a collection of tasks and their dependencies. All
// operations on the graph are concurrency-safe.
type TaskGraph struct {
	mutex sync.RWMutex
	tasks map[string]*Task
	// ordered keeps every task sorted by Order.
	ordered []*Task
}
