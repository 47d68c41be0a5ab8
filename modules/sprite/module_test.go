package sprite

import (
	"context"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/themegrid/internal/registry"
)

func TestBuild(t *testing.T) {
	// Arrange
	b := &registry.Batch{
		Options: map[string]string{"output": "img/icons.svg"},
		Files: []*registry.File{
			{Path: "icons/cart.svg", Source: "/src/icons/cart.svg", Content: []byte(
				`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24"><g fill="#000"><path d="M0 0" stroke="red" style="x"/></g></svg>`)},
			{Path: "icons/user.svg", Source: "/src/icons/user.svg", Content: []byte(
				`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16"><circle r="4" fill="blue"/></svg>`)},
			{Path: "readme.txt", Content: []byte("keep me")},
		},
	}

	// Act
	out, err := Build(context.Background(), b)

	// Assert
	require.NoError(t, err)
	require.Len(t, out.Files, 2)
	assert.Equal(t, "readme.txt", out.Files[0].Path)
	assert.Equal(t, "img/icons.svg", out.Files[1].Path)
	assert.Equal(t, "/src/icons/cart.svg", out.Files[1].Source)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(out.Files[1].Content))
	symbols := doc.FindElements("//symbol")
	require.Len(t, symbols, 2)
	assert.Equal(t, "cart", symbols[0].SelectAttrValue("id", ""))
	assert.Equal(t, "0 0 24 24", symbols[0].SelectAttrValue("viewBox", ""))
	assert.Equal(t, "user", symbols[1].SelectAttrValue("id", ""))

	var check func(e *etree.Element)
	check = func(e *etree.Element) {
		for _, attr := range strippedAttrs {
			assert.Nil(t, e.SelectAttr(attr), "<%s> still has %s", e.Tag, attr)
		}
		for _, c := range e.ChildElements() {
			check(c)
		}
	}
	for _, s := range symbols {
		check(s)
	}
	assert.NotNil(t, doc.FindElement("//symbol/g/path[@d='M0 0']"))
}

func TestBuild_Errors(t *testing.T) {
	b := &registry.Batch{Files: []*registry.File{{Path: "bad.svg", Content: []byte("<html></html>")}}}

	_, err := Build(context.Background(), b)

	assert.ErrorContains(t, err, "bad.svg")
}

func TestBuild_NoIcons(t *testing.T) {
	b := &registry.Batch{Files: []*registry.File{{Path: "a.txt"}}}

	out, err := Build(context.Background(), b)

	require.NoError(t, err)
	assert.Len(t, out.Files, 1)
}
