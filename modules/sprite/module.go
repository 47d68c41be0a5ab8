// Package sprite merges SVG icons into a single symbol sprite.
package sprite

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/beevik/etree"
	"github.com/vk/themegrid/internal/registry"
)

// DefaultOutput is the sprite path used without an `output` option.
const DefaultOutput = "sprite.svg"

// strippedAttrs are removed from every icon element so the sprite can be
// coloured with CSS.
var strippedAttrs = []string{"fill", "stroke", "style"}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the transform with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTransform("svg_sprite", Build)
}

// Build replaces every .svg file of the batch with one <symbol> in a
// sprite named by the `output` option. The symbol id is the icon's file
// name without extension. Other files pass through.
func Build(ctx context.Context, b *registry.Batch) (*registry.Batch, error) {
	sprite := etree.NewDocument()
	root := sprite.CreateElement("svg")
	root.CreateAttr("xmlns", "http://www.w3.org/2000/svg")
	root.CreateAttr("style", "display: none")

	var rest []*registry.File
	var first string
	icons := 0
	for _, f := range b.Files {
		if f.Ext() != ".svg" {
			rest = append(rest, f)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		symbol, err := toSymbol(f)
		if err != nil {
			return nil, err
		}
		root.AddChild(symbol)
		if icons == 0 {
			first = f.Source
		}
		icons++
	}
	if icons == 0 {
		return b, nil
	}

	sprite.Indent(2)
	out, err := sprite.WriteToBytes()
	if err != nil {
		return nil, err
	}
	output := strings.Trim(b.Option("output", DefaultOutput), "/")
	b.Files = append(rest, &registry.File{Path: output, Source: first, Content: out})
	return b, nil
}

func toSymbol(f *registry.File) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(f.Content); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	svg := doc.Root()
	if svg == nil || svg.Tag != "svg" {
		return nil, fmt.Errorf("%s: root element is not <svg>", f.Path)
	}

	id := strings.TrimSuffix(path.Base(f.Path), path.Ext(f.Path))
	symbol := etree.NewElement("symbol")
	symbol.CreateAttr("id", id)
	if vb := svg.SelectAttrValue("viewBox", ""); vb != "" {
		symbol.CreateAttr("viewBox", vb)
	}
	for _, child := range svg.ChildElements() {
		c := child.Copy()
		strip(c)
		symbol.AddChild(c)
	}
	return symbol, nil
}

func strip(e *etree.Element) {
	for _, a := range strippedAttrs {
		e.RemoveAttr(a)
	}
	for _, c := range e.ChildElements() {
		strip(c)
	}
}
