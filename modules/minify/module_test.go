package minify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/themegrid/internal/registry"
)

func TestTransforms(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)

	testCases := []struct {
		name      string
		transform string
		file      string
		input     string
		want      string
	}{
		{name: "css", transform: "minify_css", file: "a.css", input: "a {\n  color: #ff0000;\n}\n", want: "a{color:red}"},
		{name: "js", transform: "minify_js", file: "a.js", input: "var  x = 1 ;\n\n// note\n"},
		{name: "svg", transform: "minify_svg", file: "i.svg", input: "<svg xmlns=\"http://www.w3.org/2000/svg\">\n  <path d=\"M 0 0 L 10 10\"/>\n</svg>\n"},
		{name: "other extension untouched", transform: "minify_css", file: "a.js", input: "var  x = 1 ;", want: "var  x = 1 ;"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fn, ok := r.Lookup(tc.transform)
			require.True(t, ok)
			b := &registry.Batch{Files: []*registry.File{{Path: tc.file, Content: []byte(tc.input)}}}

			out, err := fn(context.Background(), b)

			require.NoError(t, err)
			if tc.want == "" {
				assert.Less(t, len(out.Files[0].Content), len(tc.input))
				return
			}
			assert.Equal(t, tc.want, string(out.Files[0].Content))
		})
	}
}

func TestRegister_AllNames(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)

	assert.Equal(t, []string{"minify_css", "minify_html", "minify_js", "minify_svg"}, r.Names())
}
