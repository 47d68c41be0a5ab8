package dag

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/ctxlog"
)

func model(groups ...*config.AssetGroup) *config.Model {
	m := &config.Model{
		BaseDir:  "/project",
		Pipeline: &config.Pipeline{DestRoot: "theme"},
		Groups:   groups,
	}
	m.ApplyDefaults()
	return m
}

func testCtx() context.Context {
	return ctxlog.Discard(context.Background())
}

func TestBuild_IndependentGroups(t *testing.T) {
	// Arrange
	m := model(
		&config.AssetGroup{ID: "styles", Sources: []string{"src/a.scss"}, Dest: "out", Options: map[string]string{"output": "style.css"}},
		&config.AssetGroup{ID: "scripts", Sources: []string{"src/b.js"}, Dest: "out", Options: map[string]string{"output": "main.js"}},
	)

	// Act
	g, err := Build(testCtx(), m, Options{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"styles", "scripts"}, ids(g.Tasks()))
	assert.Equal(t, []string{"styles", "scripts"}, ids(g.Roots()))

	styles, ok := g.Task("styles")
	require.True(t, ok)
	assert.Equal(t, "/project/out/style.css", styles.OutputPath())
	assert.True(t, styles.Matches("/project/src/a.scss"))
	assert.False(t, styles.Matches("/project/src/b.js"))
}

func TestBuild_ImplicitReadEdge(t *testing.T) {
	m := model(
		&config.AssetGroup{ID: "html", Sources: []string{"build/img/**/*.png", "src/*.html"}, Dest: "theme"},
		&config.AssetGroup{ID: "images", Sources: []string{"src/img/**/*.png"}, Dest: "build/img"},
	)

	g, err := Build(testCtx(), m, Options{})
	require.NoError(t, err)

	deps, err := g.Dependencies("html")
	require.NoError(t, err)
	assert.Equal(t, []string{"images"}, ids(deps))

	order, err := g.TopologicalOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"images", "html"}, ids(order))
}

func TestBuild_ShallowGlobDoesNotReachNestedDest(t *testing.T) {
	m := model(
		&config.AssetGroup{ID: "html", Sources: []string{"*.html"}, Dest: "theme"},
		&config.AssetGroup{ID: "styles", Sources: []string{"src/a.scss"}, Dest: "theme/css"},
	)

	g, err := Build(testCtx(), m, Options{})
	require.NoError(t, err)
	assert.Len(t, g.Roots(), 2)
}

func TestBuild_ExplicitDependsOn(t *testing.T) {
	m := model(
		&config.AssetGroup{ID: "sprite", Sources: []string{"src/icons/*.svg"}, Dest: "theme/img"},
		&config.AssetGroup{ID: "html", Sources: []string{"src/*.html"}, Dest: "theme", DependsOn: []string{"sprite"}},
	)

	g, err := Build(testCtx(), m, Options{})
	require.NoError(t, err)

	deps, err := g.Dependencies("html")
	require.NoError(t, err)
	assert.Equal(t, []string{"sprite"}, ids(deps))
}

func TestBuild_MutualOverlapIsACycle(t *testing.T) {
	// Arrange: each group reads what the other writes.
	m := model(
		&config.AssetGroup{ID: "a", Sources: []string{"b-out/**/*"}, Dest: "a-out"},
		&config.AssetGroup{ID: "b", Sources: []string{"a-out/**/*"}, Dest: "b-out"},
	)

	// Act
	_, err := Build(testCtx(), m, Options{})

	// Assert
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b", "a"}, cycleErr.Path)
}

func TestBuild_SameOutputIsSequenced(t *testing.T) {
	m := model(
		&config.AssetGroup{ID: "vendor", Sources: []string{"src/vendor/*.js"}, Dest: "theme/js", Options: map[string]string{"output": "main.js"}},
		&config.AssetGroup{ID: "app", Sources: []string{"src/app/*.js"}, Dest: "theme/js", Options: map[string]string{"output": "main.js"}},
		&config.AssetGroup{ID: "other", Sources: []string{"src/other/*.js"}, Dest: "theme/js", Options: map[string]string{"output": "other.js"}},
	)

	g, err := Build(testCtx(), m, Options{})
	require.NoError(t, err)

	deps, err := g.Dependencies("app")
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor"}, ids(deps))

	deps, err = g.Dependencies("other")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestBuild_SharedDestDirIsSequenced(t *testing.T) {
	// Arrange: two groups copy the same tree into one directory.
	m := model(
		&config.AssetGroup{ID: "images", Sources: []string{"src/images/**/*"}, Dest: "theme/assets/images"},
		&config.AssetGroup{ID: "images_copy", Sources: []string{"src/images/**/*"}, Dest: "theme/assets/images"},
		&config.AssetGroup{ID: "icons", Sources: []string{"src/icons/*.svg"}, Dest: "theme/assets/images/icons", Options: map[string]string{"output": "sprite.svg"}},
		&config.AssetGroup{ID: "pages", Sources: []string{"src/*.html"}, Dest: "theme"},
		&config.AssetGroup{ID: "fonts", Sources: []string{"src/fonts/*.woff2"}, Dest: "theme/fonts"},
	)

	// Act
	g, err := Build(testCtx(), m, Options{})

	// Assert
	require.NoError(t, err)

	deps, err := g.Dependencies("images_copy")
	require.NoError(t, err)
	assert.Equal(t, []string{"images"}, ids(deps))

	// The sprite file lies inside the tree both copies write.
	deps, err = g.Dependencies("icons")
	require.NoError(t, err)
	assert.Equal(t, []string{"images", "images_copy"}, ids(deps))

	// Pages only write directly into theme/, fonts only below theme/fonts.
	deps, err = g.Dependencies("fonts")
	require.NoError(t, err)
	assert.Empty(t, deps)
	deps, err = g.Dependencies("pages")
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestTask_OutputGlobs(t *testing.T) {
	m := model(
		&config.AssetGroup{ID: "styles", Sources: []string{"src/scss/*.scss", "src/main.scss"}, Dest: "theme/css"},
		&config.AssetGroup{ID: "images", Sources: []string{"src/img/**/*.{jpg,png}"}, Dest: "theme/img"},
		&config.AssetGroup{ID: "bundle", Sources: []string{"src/js/*.js"}, Dest: "theme/js", Options: map[string]string{"output": "main.js"}},
	)
	g, err := Build(testCtx(), m, Options{})
	require.NoError(t, err)

	want := map[string][]string{
		"styles": {"/project/theme/css/*.*", "/project/theme/css/main.*"},
		"images": {"/project/theme/img/**/*"},
		"bundle": {"/project/theme/js/main.js"},
	}
	for id, globs := range want {
		task, ok := g.Task(id)
		require.True(t, ok)
		assert.Equal(t, globs, task.OutputGlobs(), id)
	}
}

func TestBuild_CleanFirst(t *testing.T) {
	t.Run("clean precedes every writer", func(t *testing.T) {
		m := model(
			&config.AssetGroup{ID: "styles", Sources: []string{"src/a.scss"}, Dest: "theme/css"},
			&config.AssetGroup{ID: "scripts", Sources: []string{"src/b.js"}, Dest: "theme/js"},
		)

		g, err := Build(testCtx(), m, Options{CleanFirst: true})
		require.NoError(t, err)

		assert.Equal(t, []string{"clean"}, ids(g.Roots()))
		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"clean", "styles", "scripts"}, ids(order))

		clean, ok := g.Task("clean")
		require.True(t, ok)
		assert.Equal(t, CleanTask, clean.Kind)
		assert.Equal(t, "/project/theme", clean.DestDir)
	})

	t.Run("requires a dest root", func(t *testing.T) {
		m := model(&config.AssetGroup{ID: "styles", Sources: []string{"src/a.scss"}, Dest: "theme/css"})
		m.Pipeline.DestRoot = ""

		_, err := Build(testCtx(), m, Options{CleanFirst: true})

		var cfgErr *config.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "dest_root", cfgErr.Field)
	})
}

func TestBuild_InvalidGlob(t *testing.T) {
	m := model(&config.AssetGroup{ID: "styles", Sources: []string{"src/[a.scss"}, Dest: "theme/css"})

	_, err := Build(testCtx(), m, Options{})

	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "styles", cfgErr.Group)
}

func TestBuild_AcyclicForChains(t *testing.T) {
	// A chain of groups, each reading the previous group's output, always
	// builds and orders every group after its producer.
	for n := 1; n <= 8; n++ {
		t.Run(fmt.Sprintf("%d groups", n), func(t *testing.T) {
			groups := make([]*config.AssetGroup, 0, n)
			for i := n - 1; i >= 0; i-- {
				src := fmt.Sprintf("stage%d/**/*", i-1)
				if i == 0 {
					src = "src/**/*"
				}
				groups = append(groups, &config.AssetGroup{
					ID:      fmt.Sprintf("g%d", i),
					Sources: []string{src},
					Dest:    fmt.Sprintf("stage%d", i),
				})
			}

			g, err := Build(testCtx(), model(groups...), Options{})
			require.NoError(t, err)

			order, err := g.TopologicalOrder()
			require.NoError(t, err)
			require.Len(t, order, n)
			for i, task := range order {
				assert.Equal(t, fmt.Sprintf("g%d", i), task.ID)
			}
		})
	}
}

func TestAffected(t *testing.T) {
	m := model(
		&config.AssetGroup{ID: "styles", Sources: []string{"src/scss/style.scss"}, Watch: []string{"src/scss/**/*.scss"}, Dest: "theme/css"},
		&config.AssetGroup{ID: "html", Sources: []string{"src/*.html"}, Dest: "theme", Data: "src/data.json"},
	)
	g, err := Build(testCtx(), m, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"styles"}, ids(g.Affected([]string{"/project/src/scss/blocks/_a.scss"})))
	assert.Equal(t, []string{"html"}, ids(g.Affected([]string{"/project/src/data.json"})))
	assert.Equal(t, []string{"styles", "html"}, ids(g.Affected([]string{"/project/src/index.html", "/project/src/scss/style.scss"})))
	assert.Empty(t, g.Affected([]string{"/project/README.md"}))
}
