package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/ctxlog"
)

// WriteStage is the name of the built-in final stage.
const WriteStage = "write"

// Module is the interface that all transform modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered transforms and the groups of a single
// application instance.
type Registry struct {
	transforms map[string]Func
	groups     map[string]*config.AssetGroup
	baseDir    string
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		transforms: make(map[string]Func),
		groups:     make(map[string]*config.AssetGroup),
	}
}

// RegisterTransform registers a Go function under a transform name.
func (r *Registry) RegisterTransform(name string, fn Func) {
	if name == WriteStage {
		panic(fmt.Sprintf("transform name '%s' is reserved", name))
	}
	if _, exists := r.transforms[name]; exists {
		panic(fmt.Sprintf("transform with name '%s' already registered", name))
	}
	slog.Debug("Registering transform.", "name", name)
	r.transforms[name] = fn
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.transforms[name]
	return fn, ok
}

// Names returns the registered transform names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.transforms))
	for name := range r.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PopulateFromModel attaches the asset groups of the model to the registry.
func (r *Registry) PopulateFromModel(model *config.Model) {
	r.baseDir = model.BaseDir
	for _, g := range model.Groups {
		r.groups[g.ID] = g
	}
}

// ChainFor returns the ordered stages of a group, ending with the built-in
// write stage.
func (r *Registry) ChainFor(groupID string) ([]Stage, error) {
	g, ok := r.groups[groupID]
	if !ok {
		return nil, &config.ConfigError{Group: groupID, Err: config.ErrUnknownGroup}
	}

	chain := make([]Stage, 0, len(g.Transforms)+1)
	for _, name := range g.Transforms {
		fn, ok := r.transforms[name]
		if !ok {
			return nil, &config.ConfigError{Group: groupID, Field: "transforms", Err: fmt.Errorf("unknown transform %q", name)}
		}
		chain = append(chain, Stage{Name: name, Fn: fn})
	}
	chain = append(chain, Stage{Name: WriteStage, Fn: Write})
	return chain, nil
}

// Validate checks that every group's chain can be built.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	ids := make([]string, 0, len(r.groups))
	for id := range r.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		chain, err := r.ChainFor(id)
		if err != nil {
			return err
		}
		logger.Debug("Validated transform chain.", "group", id, "stages", len(chain))
	}
	return nil
}

// Apply runs the stages in order. The first failing stage stops the chain
// and is reported as a *TransformError.
func Apply(ctx context.Context, chain []Stage, b *Batch) (*Batch, error) {
	logger := ctxlog.FromContext(ctx).With("group", b.Group)
	for _, st := range chain {
		if err := ctx.Err(); err != nil {
			return nil, &TransformError{Group: b.Group, Stage: st.Name, Cause: err}
		}
		logger.Debug("Applying stage.", "stage", st.Name, "files", len(b.Files))
		next, err := st.Fn(ctx, b)
		if err != nil {
			return nil, &TransformError{Group: b.Group, Stage: st.Name, Cause: err}
		}
		if next == nil {
			return nil, &TransformError{Group: b.Group, Stage: st.Name, Cause: fmt.Errorf("stage returned no batch")}
		}
		b = next
	}
	return b, nil
}
