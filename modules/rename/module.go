// Package rename changes output paths without touching contents.
package rename

import (
	"context"
	"path"
	"strings"

	"github.com/vk/themegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the transform with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTransform("rename", Rename)
}

// Rename applies the `suffix` option (inserted before the extension, e.g.
// ".min"), the `ext` option (a new extension) and the `dir` option (a
// directory prefix) to every file.
func Rename(ctx context.Context, b *registry.Batch) (*registry.Batch, error) {
	suffix := b.Option("suffix", "")
	ext := b.Option("ext", "")
	dir := strings.Trim(b.Option("dir", ""), "/")

	for _, f := range b.Files {
		current := path.Ext(f.Path)
		stem := strings.TrimSuffix(f.Path, current)
		if ext != "" {
			current = "." + strings.TrimPrefix(ext, ".")
		}
		f.Path = stem + suffix + current
		if dir != "" {
			f.Path = path.Join(dir, f.Path)
		}
	}
	return b, nil
}
