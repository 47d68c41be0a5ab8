// Package yaml_adapter loads a themegrid.yaml pipeline file into
// config.Model. String values support the same `${var.name}` interpolation
// as the HCL format.
package yaml_adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/hcl_adapter"
	"gopkg.in/yaml.v3"
)

type fileRoot struct {
	Vars     map[string]string      `yaml:"vars"`
	Pipeline *pipelineDTO           `yaml:"pipeline"`
	Serve    *serveDTO              `yaml:"serve"`
	Commands map[string]*commandDTO `yaml:"commands"`
	Groups   []*groupDTO            `yaml:"groups"`
}

type pipelineDTO struct {
	DestRoot    string `yaml:"dest_root"`
	Concurrency int    `yaml:"concurrency"`
	Debounce    string `yaml:"debounce"`
	CleanFirst  bool   `yaml:"clean_first"`
}

type serveDTO struct {
	Addr string `yaml:"addr"`
	Root string `yaml:"root"`
}

type commandDTO struct {
	Run []string `yaml:"run"`
	Ext string   `yaml:"ext"`
}

type groupDTO struct {
	ID         string            `yaml:"id"`
	Sources    []string          `yaml:"sources"`
	Watch      []string          `yaml:"watch"`
	Dest       string            `yaml:"dest"`
	Transforms []string          `yaml:"transforms"`
	DependsOn  []string          `yaml:"depends_on"`
	Data       string            `yaml:"data"`
	Options    map[string]string `yaml:"options"`
}

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new YAML configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load decodes the file strictly (unknown keys are rejected) and renders
// every string field against the merged vars.
func (l *Loader) Load(ctx context.Context, path string, overrides map[string]string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	logger.Debug("YAML loader started.")

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &config.ConfigError{Field: "path", Err: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &config.ConfigError{Field: "path", Err: err}
	}

	var root fileRoot
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
		return nil, &config.ConfigError{Field: "yaml", Err: fmt.Errorf("failed to decode YAML file %s: %w", path, err)}
	}

	vars := make(map[string]string, len(root.Vars)+len(overrides))
	for k, v := range root.Vars {
		vars[k] = v
	}
	for k, v := range overrides {
		vars[k] = v
	}

	r := &renderer{vars: vars}
	model := &config.Model{
		BaseDir:  filepath.ToSlash(filepath.Dir(abs)),
		Vars:     vars,
		Commands: make(map[string]*config.Command),
	}

	if p := root.Pipeline; p != nil {
		model.Pipeline = &config.Pipeline{
			DestRoot:    r.str("dest_root", p.DestRoot),
			Concurrency: p.Concurrency,
			CleanFirst:  p.CleanFirst,
		}
		if p.Debounce != "" {
			d, err := time.ParseDuration(p.Debounce)
			if err != nil {
				return nil, &config.ConfigError{Field: "debounce", Err: err}
			}
			model.Pipeline.Debounce = d
		}
	}
	if s := root.Serve; s != nil {
		model.Serve = &config.Serve{Addr: r.str("addr", s.Addr), Root: r.str("root", s.Root)}
	}

	names := make([]string, 0, len(root.Commands))
	for name := range root.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := root.Commands[name]
		if c == nil {
			return nil, &config.ConfigError{Field: "command", Err: fmt.Errorf("command %q is empty", name)}
		}
		model.Commands[name] = &config.Command{Name: name, Run: r.list("run", c.Run), Ext: c.Ext}
	}

	for _, g := range root.Groups {
		if g == nil {
			continue
		}
		model.Groups = append(model.Groups, &config.AssetGroup{
			ID:         g.ID,
			Sources:    r.list("sources", g.Sources),
			Watch:      r.list("watch", g.Watch),
			Dest:       r.str("dest", g.Dest),
			Transforms: g.Transforms,
			DependsOn:  g.DependsOn,
			Data:       r.str("data", g.Data),
			Options:    g.Options,
		})
	}

	if r.err != nil {
		return nil, r.err
	}
	logger.Debug("YAML loading complete.", "groups", len(model.Groups), "commands", len(model.Commands))
	return model, nil
}

// renderer interpolates strings and keeps the first error.
type renderer struct {
	vars map[string]string
	err  error
}

func (r *renderer) str(field, s string) string {
	if r.err != nil || s == "" {
		return s
	}
	out, err := hcl_adapter.Interpolate(s, r.vars)
	if err != nil {
		r.err = &config.ConfigError{Field: field, Err: err}
		return s
	}
	return out
}

func (r *renderer) list(field string, in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = r.str(field, s)
	}
	return out
}
