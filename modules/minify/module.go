// Package minify registers minifiers for stylesheets, scripts, markup and
// SVG.
package minify

import (
	"context"
	"fmt"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/vk/themegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type target struct {
	name      string
	mediatype string
	exts      []string
}

var targets = []target{
	{name: "minify_css", mediatype: "text/css", exts: []string{".css"}},
	{name: "minify_js", mediatype: "application/javascript", exts: []string{".js"}},
	{name: "minify_html", mediatype: "text/html", exts: []string{".html", ".htm"}},
	{name: "minify_svg", mediatype: "image/svg+xml", exts: []string{".svg"}},
}

// New returns a minifier with every supported media type.
func New() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

// Register registers the transforms with the registry.
func (mod *Module) Register(r *registry.Registry) {
	m := New()
	for _, t := range targets {
		mediatype := t.mediatype
		r.RegisterTransform(t.name, registry.FilterExt(t.exts, func(ctx context.Context, b *registry.Batch, f *registry.File) error {
			out, err := m.Bytes(mediatype, f.Content)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Path, err)
			}
			f.Content = out
			return nil
		}))
	}
}
