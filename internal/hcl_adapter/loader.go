package hcl_adapter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the pipeline file in two phases. The `vars` block is evaluated
// first and merged with overrides, then every other block is decoded with
// `var` available for interpolation.
func (l *Loader) Load(ctx context.Context, path string, overrides map[string]string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx).With("path", path)
	logger.Debug("HCL loader started.")

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &config.ConfigError{Field: "path", Err: err}
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return nil, &config.ConfigError{Field: "hcl", Err: fmt.Errorf("failed to parse HCL file %s: %w", path, diags)}
	}

	var vr varsRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &vr); diags.HasErrors() {
		return nil, &config.ConfigError{Field: "hcl", Err: fmt.Errorf("failed to decode HCL file %s: %w", path, diags)}
	}

	vars, err := l.evalVars(vr.Vars)
	if err != nil {
		return nil, err
	}
	for k, v := range overrides {
		vars[k] = v
	}
	logger.Debug("Evaluated vars.", "count", len(vars))

	var root fileRoot
	if diags := gohcl.DecodeBody(vr.Remain, EvalContext(vars), &root); diags.HasErrors() {
		return nil, &config.ConfigError{Field: "hcl", Err: fmt.Errorf("failed to decode HCL file %s: %w", path, diags)}
	}

	model, err := l.translate(&root)
	if err != nil {
		return nil, err
	}
	model.BaseDir = filepath.ToSlash(filepath.Dir(abs))
	model.Vars = vars

	logger.Debug("HCL loading complete.", "groups", len(model.Groups), "commands", len(model.Commands))
	return model, nil
}

func (l *Loader) evalVars(b *VarsBlock) (map[string]string, error) {
	vars := make(map[string]string)
	if b == nil || b.Body == nil {
		return vars, nil
	}
	attrs, diags := b.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, &config.ConfigError{Field: "vars", Err: diags}
	}
	for name, attr := range attrs {
		s, err := exprString(attr.Expr, nil)
		if err != nil {
			return nil, &config.ConfigError{Field: "vars", Err: fmt.Errorf("%s: %w", name, err)}
		}
		vars[name] = s
	}
	return vars, nil
}

// exprString evaluates expr and converts the result to a string.
func exprString(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	return ctyString(val)
}
