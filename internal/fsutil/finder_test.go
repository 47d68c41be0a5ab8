package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, filepath.FromSlash(r))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(r), 0o644))
	}
}

func TestExpandGlobs(t *testing.T) {
	// Arrange
	root := filepath.ToSlash(t.TempDir())
	touch(t, root,
		"src/scss/style.scss",
		"src/scss/blocks/_header.scss",
		"src/scss/blocks/deep/_menu.scss",
		"src/js/app.js",
		"src/js/vendor/lib.js",
	)

	testCases := []struct {
		name  string
		globs []string
		want  []string
	}{
		{
			name:  "double star matches zero or more directories",
			globs: []string{root + "/src/scss/**/*.scss"},
			want: []string{
				root + "/src/scss/blocks/_header.scss",
				root + "/src/scss/blocks/deep/_menu.scss",
				root + "/src/scss/style.scss",
			},
		},
		{
			name:  "single star stays in one directory",
			globs: []string{root + "/src/js/*.js"},
			want:  []string{root + "/src/js/app.js"},
		},
		{
			name:  "literal file",
			globs: []string{root + "/src/js/app.js"},
			want:  []string{root + "/src/js/app.js"},
		},
		{
			name:  "overlapping globs are deduplicated",
			globs: []string{root + "/src/js/**/*.js", root + "/src/js/*.js"},
			want:  []string{root + "/src/js/app.js", root + "/src/js/vendor/lib.js"},
		},
		{
			name:  "missing base matches nothing",
			globs: []string{root + "/nope/**/*.png"},
			want:  nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			got, err := ExpandGlobs(tc.globs)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStaticBase(t *testing.T) {
	assert.Equal(t, "/p/src/scss", StaticBase("/p/src/scss/**/*.scss"))
	assert.Equal(t, "/p/src", StaticBase("/p/src/*.html"))
	assert.Equal(t, "/p/src/a.scss", StaticBase("/p/src/a.scss"))
	assert.Equal(t, "/", StaticBase("/*.js"))
	assert.Equal(t, ".", StaticBase("*.js"))
	assert.Equal(t, "/p/img", StaticBase("/p/img/{a,b}.png"))
}

func TestRelToBase(t *testing.T) {
	assert.Equal(t, "icons/a.png", RelToBase("/p/img/icons/a.png", "/p/img"))
	assert.Equal(t, "a.scss", RelToBase("/p/src/a.scss", "/p/src/a.scss"))
	assert.Equal(t, "x.js", RelToBase("/x.js", "/"))
}

func TestWithinDir(t *testing.T) {
	assert.True(t, WithinDir("/out/css/a.css", "/out"))
	assert.True(t, WithinDir("/out", "/out"))
	assert.False(t, WithinDir("/outer/a.css", "/out"))
	assert.True(t, WithinDir("/x", "/"))
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher("/p/src/**/*.scss", "/p/src/*.html")
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Match("/p/src/a.scss"))
	assert.True(t, m.Match("/p/src/x/y/_b.scss"))
	assert.True(t, m.Match("/p/src/index.html"))
	assert.False(t, m.Match("/p/src/parts/header.html"))
	assert.False(t, m.Match("/p/other/a.scss"))

	var nilMatcher *Matcher
	assert.False(t, nilMatcher.Match("/p/src/a.scss"))

	_, err = NewMatcher("/p/[")
	assert.Error(t, err)
}

func TestWriteIfChanged(t *testing.T) {
	name := filepath.Join(t.TempDir(), "sub", "data.json")

	wrote, err := WriteIfChanged(name, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = WriteIfChanged(name, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.False(t, wrote)

	wrote, err = WriteIfChanged(name, []byte(`{"a":2}`))
	require.NoError(t, err)
	assert.True(t, wrote)
}
