package executor

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/dag"
	"github.com/vk/themegrid/internal/fingerprint"
	"github.com/vk/themegrid/internal/fsutil"
	"golang.org/x/sync/errgroup"
)

// Staleness reasons reported in RunResult.Reason.
const (
	ReasonForced     = "forced"
	ReasonChanged    = "changed"
	ReasonContent    = "content changed"
	ReasonNewer      = "inputs newer than outputs"
	ReasonNoOutputs  = "no outputs"
	ReasonMissing    = "outputs missing"
	ReasonRetry      = "previous run failed"
	ReasonUpstream   = "upstream stale"
	ReasonFirstClean = "first run"
	ReasonUnchanged  = "unchanged"
)

// Inputs returns every existing input file of a task: its source and watch
// globs expanded, plus its data file.
func Inputs(t *dag.Task) ([]string, error) {
	files, err := fsutil.ExpandGlobs(t.Globs())
	if err != nil {
		return nil, err
	}
	if t.DataFile != "" {
		if _, err := os.Stat(filepath.FromSlash(t.DataFile)); err == nil {
			files = append(files, t.DataFile)
		}
	}
	return files, nil
}

// plan decides the candidate staleness of every node, then propagates it
// downstream. Fingerprints are computed concurrently.
func (e *Executor) plan(ctx context.Context, nodes []*node, cs ChangeSet) error {
	logger := ctxlog.FromContext(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.numWorkers)
	for _, n := range nodes {
		g.Go(func() error {
			return e.assess(gctx, n, cs)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, n := range nodes {
		if !n.stale {
			continue
		}
		for _, d := range e.graph.Downstream(n.task.ID) {
			dn := e.byID[d.ID]
			if dn != nil && !dn.stale {
				dn.stale = true
				dn.reason = ReasonUpstream
			}
		}
	}

	for _, n := range nodes {
		logger.Debug("Planned task.", "task", n.task.ID, "stale", n.stale, "reason", n.reason)
	}
	return nil
}

// assess computes the candidate staleness of one node.
func (e *Executor) assess(ctx context.Context, n *node, cs ChangeSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := n.task
	rec, hasRecord := e.fingerprints.Get(t.ID)

	if t.Kind == dag.CleanTask {
		switch {
		case e.force:
			n.stale, n.reason = true, ReasonForced
		case !hasRecord:
			n.stale, n.reason = true, ReasonFirstClean
		case rec.Failed:
			n.stale, n.reason = true, ReasonRetry
		default:
			n.reason = ReasonUnchanged
		}
		return nil
	}

	inputs, err := Inputs(t)
	if err != nil {
		return err
	}
	fp, err := fingerprint.Compute(inputs)
	if err != nil {
		return err
	}
	n.fp = fp

	switch {
	case e.force:
		n.stale, n.reason = true, ReasonForced
		return nil
	case changed(t, cs):
		n.stale, n.reason = true, ReasonChanged
		return nil
	}

	if hasRecord {
		switch {
		case rec.Failed:
			n.stale, n.reason = true, ReasonRetry
		case !fp.Equal(rec.Fingerprint):
			n.stale, n.reason = true, ReasonContent
		case !fingerprint.AllExist(rec.Outputs):
			n.stale, n.reason = true, ReasonMissing
		default:
			n.reason = ReasonUnchanged
		}
		return nil
	}

	// Fresh process: fall back to modification times of the artifacts.
	outputs, missing, err := expectedOutputs(t)
	if err != nil {
		return err
	}
	oldest, found := fingerprint.OldestOutput(outputs)
	switch {
	case !found:
		n.stale, n.reason = true, ReasonNoOutputs
	case missing > 0:
		n.stale, n.reason = true, ReasonMissing
	case fp.Newest.After(oldest):
		n.stale, n.reason = true, ReasonNewer
	default:
		n.reason = ReasonUnchanged
		n.seeded = true
		n.seedOutputs = outputs
	}
	return nil
}

// expectedOutputs locates the artifacts a previous run of t left behind. A
// group with an `output` option writes that one file. Any other group
// writes each source below DestDir at its path relative to the static base
// of its glob. Transforms may rename the extension or append a suffix, so
// such an output is found by the name stem of its source. Sources named
// with a leading underscore are partials and produce nothing. It returns
// the outputs found and how many were not.
func expectedOutputs(t *dag.Task) ([]string, int, error) {
	if t.OutputFile != "" {
		out := t.OutputPath()
		if _, err := os.Stat(filepath.FromSlash(out)); err != nil {
			return nil, 1, nil
		}
		return []string{out}, 0, nil
	}

	var outputs []string
	missing := 0
	listings := make(map[string][]string)
	seen := make(map[string]struct{})
	for _, pattern := range t.SourceGlobs {
		files, err := fsutil.ExpandGlobs([]string{pattern})
		if err != nil {
			return nil, 0, err
		}
		base := fsutil.StaticBase(pattern)
		for _, f := range files {
			if _, ok := seen[f]; ok || strings.HasPrefix(path.Base(f), "_") {
				continue
			}
			seen[f] = struct{}{}

			want := path.Join(t.DestDir, fsutil.RelToBase(f, base))
			dir := path.Dir(want)
			names, ok := listings[dir]
			if !ok {
				names = listDir(dir)
				listings[dir] = names
			}
			if out, ok := matchStem(want, names); ok {
				outputs = append(outputs, out)
			} else {
				missing++
			}
		}
	}
	return outputs, missing, nil
}

func listDir(dir string) []string {
	entries, err := os.ReadDir(filepath.FromSlash(dir))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}

// matchStem finds the file of want among names: the exact name first, then
// any name sharing its stem followed by a dot.
func matchStem(want string, names []string) (string, bool) {
	dir, name := path.Split(want)
	stem := strings.TrimSuffix(name, path.Ext(name))
	if stem == "" {
		stem = name
	}
	var found string
	for _, n := range names {
		if n == name {
			return want, true
		}
		if found == "" && strings.HasPrefix(n, stem+".") {
			found = path.Join(dir, n)
		}
	}
	return found, found != ""
}

func changed(t *dag.Task, cs ChangeSet) bool {
	for p := range cs {
		if t.Matches(p) {
			return true
		}
	}
	return false
}
