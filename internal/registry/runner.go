package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/dag"
	"github.com/vk/themegrid/internal/fsutil"
)

// RunTask invokes one task of the graph: the clean task removes its
// destination tree, a group task reads its sources, runs its chain and
// returns the files the write stage produced.
func (r *Registry) RunTask(ctx context.Context, t *dag.Task) ([]string, error) {
	if t.Kind == dag.CleanTask {
		return nil, Clean(ctx, t.DestDir)
	}

	chain, err := r.ChainFor(t.ID)
	if err != nil {
		return nil, err
	}
	b, err := r.NewBatch(t)
	if err != nil {
		return nil, &TransformError{Group: t.ID, Stage: "read", Cause: err}
	}
	out, err := Apply(ctx, chain, b)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Group written.", "group", t.ID, "files", len(out.Written), "changed", out.Changed)
	return out.Written, nil
}

// NewBatch loads the source files and data of a group task. A file's
// output path is its path below the static base of the glob that matched
// it, so "src/img/**/*.png" keeps sub directories while a literal source
// keeps only its base name.
func (r *Registry) NewBatch(t *dag.Task) (*Batch, error) {
	b := &Batch{
		Group:   t.ID,
		BaseDir: r.baseDir,
		DestDir: t.DestDir,
		Options: make(map[string]string),
	}
	if g, ok := r.groups[t.ID]; ok {
		for k, v := range g.Options {
			b.Options[k] = v
		}
	}

	seen := make(map[string]struct{})
	for _, pattern := range t.SourceGlobs {
		files, err := fsutil.ExpandGlobs([]string{pattern})
		if err != nil {
			return nil, err
		}
		base := fsutil.StaticBase(pattern)
		for _, f := range files {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}

			content, err := os.ReadFile(filepath.FromSlash(f))
			if err != nil {
				return nil, err
			}
			b.Files = append(b.Files, &File{Path: fsutil.RelToBase(f, base), Source: f, Content: content})
		}
	}

	if t.DataFile != "" {
		data, err := loadData(t.DataFile)
		if err != nil {
			return nil, err
		}
		b.Data = data
	}
	return b, nil
}

// loadData decodes a JSON object. A missing file yields no data.
func loadData(name string) (map[string]any, error) {
	raw, err := os.ReadFile(filepath.FromSlash(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding data file %s: %w", name, err)
	}
	return data, nil
}

// Clean removes a destination tree. Removing a missing tree is not an error.
func Clean(ctx context.Context, dir string) error {
	if dir == "" || dir == "/" {
		return fmt.Errorf("refusing to clean %q", dir)
	}
	ctxlog.FromContext(ctx).Info("🧹 Cleaning destination", "dir", dir)
	return os.RemoveAll(filepath.FromSlash(dir))
}
