package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Resolved is an asset group mapped onto concrete, absolute paths. All paths
// use forward slashes so they can be matched by the glob engine directly.
type Resolved struct {
	Group       string
	SourceGlobs []string
	WatchGlobs  []string
	DestDir     string
	// DataFile is the absolute path of the group's JSON data file, if any.
	DataFile string
}

// Resolver maps asset group ids onto source globs and destination
// directories. It is a pure function of the model apart from EnsureDest.
type Resolver struct {
	model *Model
}

// NewResolver creates a resolver for the given model.
func NewResolver(m *Model) *Resolver {
	return &Resolver{model: m}
}

// Resolve returns the concrete paths of the group with the given id.
func (r *Resolver) Resolve(id string) (Resolved, error) {
	g, ok := r.model.Group(id)
	if !ok {
		return Resolved{}, &ConfigError{Group: id, Err: ErrUnknownGroup}
	}

	res := Resolved{
		Group:   g.ID,
		DestDir: r.Abs(g.Dest),
	}
	for _, s := range g.Sources {
		res.SourceGlobs = append(res.SourceGlobs, r.Abs(s))
	}
	for _, w := range g.Watch {
		res.WatchGlobs = append(res.WatchGlobs, r.Abs(w))
	}
	if g.Data != "" {
		res.DataFile = r.Abs(g.Data)
	}
	return res, nil
}

// ResolveAll resolves every group in declaration order.
func (r *Resolver) ResolveAll() ([]Resolved, error) {
	out := make([]Resolved, 0, len(r.model.Groups))
	for _, g := range r.model.Groups {
		res, err := r.Resolve(g.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// EnsureDest resolves the group and creates its destination directory.
func (r *Resolver) EnsureDest(id string) (Resolved, error) {
	res, err := r.Resolve(id)
	if err != nil {
		return Resolved{}, err
	}
	if err := os.MkdirAll(filepath.FromSlash(res.DestDir), 0o755); err != nil {
		return Resolved{}, &ConfigError{Group: id, Field: "dest", Err: err}
	}
	return res, nil
}

// DestRoot returns the absolute destination root removed by the clean task.
// It is empty when the pipeline block does not declare one.
func (r *Resolver) DestRoot() string {
	if r.model.Pipeline == nil || r.model.Pipeline.DestRoot == "" {
		return ""
	}
	return r.Abs(r.model.Pipeline.DestRoot)
}

// Abs joins p to the model's base directory unless it is already absolute
// and returns it in forward-slash form.
func (r *Resolver) Abs(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	if !path.IsAbs(p) && !filepath.IsAbs(filepath.FromSlash(p)) {
		p = path.Join(filepath.ToSlash(r.model.BaseDir), p)
	}
	return path.Clean(p)
}

// String is used in log output.
func (r Resolved) String() string {
	return fmt.Sprintf("%s: %v -> %s", r.Group, r.SourceGlobs, r.DestDir)
}
