// Package include renders HTML pages: it resolves @@include directives,
// substitutes @@name placeholders from the group's data file and wraps
// raster images in a <picture> element with a WebP source. Its webp_css
// transform gives stylesheets the matching WebP backgrounds.
package include

import (
	"github.com/vk/themegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var htmlExts = []string{".html", ".htm"}

// Register registers the transforms with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTransform("file_include", registry.FilterExt(htmlExts, Include))
	r.RegisterTransform("data", registry.FilterExt(htmlExts, Substitute))
	r.RegisterTransform("webp_html", registry.FilterExt(htmlExts, WebPPicture))
	r.RegisterTransform("webp_css", registry.FilterExt([]string{".css"}, WebPCSS))
}
