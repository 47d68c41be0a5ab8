// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl_adapter

import (
	"fmt"
	"time"

	"github.com/vk/themegrid/internal/config"
)

func (l *Loader) translate(root *fileRoot) (*config.Model, error) {
	m := &config.Model{
		Commands: make(map[string]*config.Command),
	}

	if p := root.Pipeline; p != nil {
		pipeline, err := translatePipeline(p)
		if err != nil {
			return nil, err
		}
		m.Pipeline = pipeline
	}
	if s := root.Serve; s != nil {
		m.Serve = &config.Serve{Addr: s.Addr, Root: s.Root}
	}
	for _, c := range root.Commands {
		if _, dup := m.Commands[c.Name]; dup {
			return nil, &config.ConfigError{Field: "command", Err: fmt.Errorf("duplicate command %q", c.Name)}
		}
		m.Commands[c.Name] = &config.Command{Name: c.Name, Run: c.Run, Ext: c.Ext}
	}
	for _, g := range root.Groups {
		m.Groups = append(m.Groups, translateGroup(g))
	}
	return m, nil
}

func translatePipeline(p *PipelineBlock) (*config.Pipeline, error) {
	out := &config.Pipeline{
		DestRoot:    p.DestRoot,
		Concurrency: p.Concurrency,
		CleanFirst:  p.CleanFirst,
	}
	if p.Debounce != "" {
		d, err := time.ParseDuration(p.Debounce)
		if err != nil {
			return nil, &config.ConfigError{Field: "debounce", Err: err}
		}
		out.Debounce = d
	}
	return out, nil
}

func translateGroup(g *GroupBlock) *config.AssetGroup {
	return &config.AssetGroup{
		ID:         g.ID,
		Sources:    g.Sources,
		Watch:      g.Watch,
		Dest:       g.Dest,
		Transforms: g.Transforms,
		DependsOn:  g.DependsOn,
		Data:       g.Data,
		Options:    g.Options,
	}
}
