package concat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/themegrid/internal/registry"
)

func TestConcat(t *testing.T) {
	// Arrange
	b := &registry.Batch{
		Options: map[string]string{"output": "js/main.min.js"},
		Files: []*registry.File{
			{Path: "a.js", Source: "/src/a.js", Content: []byte("var a = 1;\n")},
			{Path: "b.js", Source: "/src/b.js", Content: []byte("var b = 2;")},
		},
	}

	// Act
	out, err := Concat(context.Background(), b)

	// Assert
	require.NoError(t, err)
	require.Len(t, out.Files, 1)
	assert.Equal(t, "js/main.min.js", out.Files[0].Path)
	assert.Equal(t, "/src/a.js", out.Files[0].Source)
	assert.Equal(t, "var a = 1;\nvar b = 2;\n", string(out.Files[0].Content))
}

func TestConcat_Errors(t *testing.T) {
	_, err := Concat(context.Background(), &registry.Batch{})
	assert.ErrorIs(t, err, ErrNoOutput)

	out, err := Concat(context.Background(), &registry.Batch{Options: map[string]string{"output": "x.css"}})
	require.NoError(t, err)
	assert.Empty(t, out.Files)
}
