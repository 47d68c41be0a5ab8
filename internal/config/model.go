package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// DefaultDebounce is the debounce window used when the pipeline block does
// not set one.
const DefaultDebounce = 100 * time.Millisecond

// DefaultServeAddr is the dev server address used when the serve block does
// not set one.
const DefaultServeAddr = ":3000"

// Model is the unified, format-agnostic representation of a pipeline file.
type Model struct {
	// BaseDir is the directory every relative path is resolved against. It
	// is the directory containing the configuration file.
	BaseDir string
	// Vars holds the final, override-applied values of the `vars` block.
	Vars     map[string]string
	Pipeline *Pipeline
	Serve    *Serve
	Commands map[string]*Command
	// Groups keeps declaration order, which the graph uses as its tie-break.
	Groups []*AssetGroup
}

// Pipeline holds the settings of the `pipeline` block.
type Pipeline struct {
	// DestRoot is the destination tree removed by the clean task.
	DestRoot    string
	Concurrency int
	Debounce    time.Duration
	CleanFirst  bool
}

// Serve holds the settings of the `serve` block.
type Serve struct {
	Addr string
	// Root is the directory served over HTTP. Defaults to Pipeline.DestRoot.
	Root string
}

// Command declares an external program used as a transform. Each file is
// piped through Run on stdin and replaced by its stdout.
type Command struct {
	Name string
	Run  []string
	// Ext, when set, replaces the extension of every processed file.
	Ext string
}

// AssetGroup is the format-agnostic representation of a `group` block.
type AssetGroup struct {
	ID string
	// Sources are the globs whose files enter the transform chain.
	Sources []string
	// Watch are extra globs that invalidate the group without being read by
	// the chain (SCSS partials, HTML includes).
	Watch      []string
	Dest       string
	Transforms []string
	DependsOn  []string
	// Data is an optional JSON file decoded and handed to the chain as metadata.
	Data    string
	Options map[string]string
}

// Option returns the named option, or def when the group does not set it.
func (g *AssetGroup) Option(key, def string) string {
	if g == nil || g.Options == nil {
		return def
	}
	if v, ok := g.Options[key]; ok && v != "" {
		return v
	}
	return def
}

// Group returns the group with the given id.
func (m *Model) Group(id string) (*AssetGroup, bool) {
	for _, g := range m.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// GroupIDs returns the ids of all groups in declaration order.
func (m *Model) GroupIDs() []string {
	ids := make([]string, 0, len(m.Groups))
	for _, g := range m.Groups {
		ids = append(ids, g.ID)
	}
	return ids
}

// ApplyDefaults fills in unset pipeline and serve settings.
func (m *Model) ApplyDefaults() {
	if m.Pipeline == nil {
		m.Pipeline = &Pipeline{}
	}
	if m.Pipeline.Concurrency <= 0 {
		m.Pipeline.Concurrency = runtime.GOMAXPROCS(0)
	}
	if m.Pipeline.Debounce <= 0 {
		m.Pipeline.Debounce = DefaultDebounce
	}
	if m.Serve == nil {
		m.Serve = &Serve{}
	}
	if m.Serve.Addr == "" {
		m.Serve.Addr = DefaultServeAddr
	}
	if m.Serve.Root == "" {
		m.Serve.Root = m.Pipeline.DestRoot
	}
	if m.Commands == nil {
		m.Commands = make(map[string]*Command)
	}
	if m.Vars == nil {
		m.Vars = make(map[string]string)
	}
}

// Validate checks the structural integrity of the model. It returns the
// first problem found as a *ConfigError.
func (m *Model) Validate() error {
	if len(m.Groups) == 0 {
		return &ConfigError{Field: "group", Err: fmt.Errorf("no asset groups declared")}
	}

	seen := make(map[string]struct{}, len(m.Groups))
	for _, g := range m.Groups {
		if strings.TrimSpace(g.ID) == "" {
			return &ConfigError{Field: "group", Err: fmt.Errorf("group id is required")}
		}
		if g.ID == CleanTaskID {
			return &ConfigError{Group: g.ID, Field: "group", Err: fmt.Errorf("%q is reserved for the clean task", CleanTaskID)}
		}
		if _, dup := seen[g.ID]; dup {
			return &ConfigError{Group: g.ID, Field: "group", Err: fmt.Errorf("duplicate group id")}
		}
		seen[g.ID] = struct{}{}

		if len(g.Sources) == 0 {
			return &ConfigError{Group: g.ID, Field: "sources", Err: fmt.Errorf("at least one source glob is required")}
		}
		if strings.TrimSpace(g.Dest) == "" {
			return &ConfigError{Group: g.ID, Field: "dest", Err: fmt.Errorf("destination directory is required")}
		}
	}

	for _, g := range m.Groups {
		for _, dep := range g.DependsOn {
			if _, ok := seen[dep]; !ok {
				return &ConfigError{Group: g.ID, Field: "depends_on", Err: fmt.Errorf("%w: %q", ErrUnknownGroup, dep)}
			}
			if dep == g.ID {
				return &ConfigError{Group: g.ID, Field: "depends_on", Err: fmt.Errorf("group cannot depend on itself")}
			}
		}
	}

	for name, cmd := range m.Commands {
		if len(cmd.Run) == 0 {
			return &ConfigError{Field: "command", Err: fmt.Errorf("command %q has an empty run list", name)}
		}
	}
	return nil
}

// CleanTaskID is the id of the synthetic task that removes the destination tree.
const CleanTaskID = "clean"
