// Package concat bundles every file of a batch into a single output file.
package concat

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/vk/themegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// ErrNoOutput is returned when the group does not set the `output` option.
var ErrNoOutput = errors.New("concat needs the group option \"output\"")

// Register registers the transform with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTransform("concat", Concat)
}

// Concat joins the files in batch order, separated by the `separator`
// option (a newline by default). The bundle is named by the `output`
// option. An empty batch produces no bundle.
func Concat(ctx context.Context, b *registry.Batch) (*registry.Batch, error) {
	output := strings.Trim(b.Option("output", ""), "/")
	if output == "" {
		return nil, ErrNoOutput
	}
	if len(b.Files) == 0 {
		return b, nil
	}
	sep := []byte(b.Option("separator", "\n"))

	var buf bytes.Buffer
	for i, f := range b.Files {
		if i > 0 {
			buf.Write(sep)
		}
		buf.Write(bytes.TrimRight(f.Content, "\n"))
	}
	buf.WriteByte('\n')

	b.Files = []*registry.File{{Path: output, Source: b.Files[0].Source, Content: buf.Bytes()}}
	return b, nil
}
