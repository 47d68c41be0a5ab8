package hcl_adapter

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// EvalContext exposes vars to expressions as `var.<name>`.
func EvalContext(vars map[string]string) *hcl.EvalContext {
	obj := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		obj[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(obj),
		},
	}
}

// Interpolate renders s as an HCL template, so "${var.theme}/css" works in
// any configuration format.
func Interpolate(s string, vars map[string]string) (string, error) {
	expr, diags := hclsyntax.ParseTemplate([]byte(s), "<template>", hcl.InitialPos)
	if diags.HasErrors() {
		return "", diags
	}
	return exprString(expr, EvalContext(vars))
}

func ctyString(val cty.Value) (string, error) {
	if val.IsNull() {
		return "", nil
	}
	if !val.IsWhollyKnown() {
		return "", fmt.Errorf("value is not known")
	}
	s, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("expected a string, got %s: %w", val.Type().FriendlyName(), err)
	}
	return s.AsString(), nil
}
