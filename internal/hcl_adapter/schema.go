package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// VarsBlock represents the `vars` block. Its attributes are evaluated
// without any context, so vars cannot reference each other.
type VarsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// PipelineBlock represents the `pipeline` block.
type PipelineBlock struct {
	DestRoot    string `hcl:"dest_root,optional"`
	Concurrency int    `hcl:"concurrency,optional"`
	Debounce    string `hcl:"debounce,optional"`
	CleanFirst  bool   `hcl:"clean_first,optional"`
}

// ServeBlock represents the `serve` block.
type ServeBlock struct {
	Addr string `hcl:"addr,optional"`
	Root string `hcl:"root,optional"`
}

// CommandBlock represents a `command "<name>"` block declaring an external
// transform program.
type CommandBlock struct {
	Name string   `hcl:"name,label"`
	Run  []string `hcl:"run"`
	Ext  string   `hcl:"ext,optional"`
}

// GroupBlock represents a `group "<id>"` block.
type GroupBlock struct {
	ID         string            `hcl:"id,label"`
	Sources    []string          `hcl:"sources"`
	Watch      []string          `hcl:"watch,optional"`
	Dest       string            `hcl:"dest"`
	Transforms []string          `hcl:"transforms,optional"`
	DependsOn  []string          `hcl:"depends_on,optional"`
	Data       string            `hcl:"data,optional"`
	Options    map[string]string `hcl:"options,optional"`
}

// varsRoot is decoded first, to evaluate the vars before anything else.
type varsRoot struct {
	Vars   *VarsBlock `hcl:"vars,block"`
	Remain hcl.Body   `hcl:",remain"`
}

// fileRoot holds every block that may reference vars.
type fileRoot struct {
	Pipeline *PipelineBlock  `hcl:"pipeline,block"`
	Serve    *ServeBlock     `hcl:"serve,block"`
	Commands []*CommandBlock `hcl:"command,block"`
	Groups   []*GroupBlock   `hcl:"group,block"`
}
