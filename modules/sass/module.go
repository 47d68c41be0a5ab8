// Package sass compiles SCSS with an embedded Dart Sass process and expands
// glob imports before compilation.
package sass

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"
	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/registry"
)

// Transpiler compiles one stylesheet. *godartsass.Transpiler satisfies it.
type Transpiler interface {
	Execute(args godartsass.Args) (godartsass.Result, error)
}

// Module implements the registry.Module interface for this package.
type Module struct {
	// Transpiler replaces the embedded Dart Sass process when set.
	Transpiler Transpiler
	// Binary is the dart-sass executable. Empty looks it up on PATH.
	Binary string

	mu      sync.Mutex
	process *godartsass.Transpiler
}

// Register registers the transforms with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTransform("sass_glob", registry.FilterExt([]string{".scss", ".sass"}, ExpandGlobImports))
	r.RegisterTransform("sass", m.Compile)
}

// Compile turns every .scss and .sass file into CSS. Partials (files whose
// name starts with an underscore) only exist to be imported and are
// dropped from the batch.
func (m *Module) Compile(ctx context.Context, b *registry.Batch) (*registry.Batch, error) {
	logger := ctxlog.FromContext(ctx).With("group", b.Group, "stage", "sass")

	style := godartsass.OutputStyleExpanded
	if b.Option("style", "expanded") == "compressed" {
		style = godartsass.OutputStyleCompressed
	}
	var extra []string
	for _, p := range strings.Split(b.Option("include_paths", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			if !path.IsAbs(p) {
				p = path.Join(b.BaseDir, p)
			}
			extra = append(extra, p)
		}
	}

	files := b.Files[:0]
	for _, f := range b.Files {
		ext := f.Ext()
		if ext != ".scss" && ext != ".sass" {
			files = append(files, f)
			continue
		}
		if strings.HasPrefix(path.Base(f.Path), "_") {
			logger.Debug("Dropping partial.", "file", f.Path)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, err := m.transpiler()
		if err != nil {
			return nil, err
		}
		syntax := godartsass.SourceSyntaxSCSS
		if ext == ".sass" {
			syntax = godartsass.SourceSyntaxSASS
		}
		res, err := t.Execute(godartsass.Args{
			Source:       string(f.Content),
			URL:          "file://" + f.Source,
			OutputStyle:  style,
			SourceSyntax: syntax,
			IncludePaths: append([]string{path.Dir(f.Source)}, extra...),
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, err)
		}
		f.Content = []byte(res.CSS)
		f.SetExt(".css")
		files = append(files, f)
	}
	b.Files = files
	return b, nil
}

// transpiler starts the Dart Sass process on first use.
func (m *Module) transpiler() (Transpiler, error) {
	if m.Transpiler != nil {
		return m.Transpiler, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.process == nil {
		t, err := godartsass.Start(godartsass.Options{DartSassEmbeddedFilename: m.Binary})
		if err != nil {
			return nil, fmt.Errorf("starting dart sass: %w", err)
		}
		m.process = t
	}
	return m.process, nil
}

// Close stops the Dart Sass process, if it was started.
func (m *Module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.process == nil {
		return nil
	}
	err := m.process.Close()
	m.process = nil
	return err
}
