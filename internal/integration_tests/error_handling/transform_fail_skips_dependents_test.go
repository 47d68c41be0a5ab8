package integration_tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/themegrid/internal/app"
	"github.com/vk/themegrid/internal/executor"
	"github.com/vk/themegrid/internal/registry"
)

// mockFailModule registers a failing transform and a spy transform.
type mockFailModule struct {
	wasSpyExecuted *atomic.Bool
	injectedError  error
}

func (m *mockFailModule) Register(r *registry.Registry) {
	r.RegisterTransform("explode", func(context.Context, *registry.Batch) (*registry.Batch, error) {
		return nil, m.injectedError
	})
	r.RegisterTransform("spy", func(_ context.Context, b *registry.Batch) (*registry.Batch, error) {
		m.wasSpyExecuted.Store(true)
		return b, nil
	})
}

// Test for: a failed group skips its dependents and spares the rest.
func TestErrorHandling_TransformFailure_SkipsDependents(t *testing.T) {
	// --- Arrange ---
	pipeline := `
		group "styles" {
			sources    = ["src/css/*.css"]
			dest       = "out/css"
			transforms = ["explode"]
		}
		group "html" {
			sources    = ["src/*.html"]
			dest       = "out"
			transforms = ["spy"]
			depends_on = ["styles"]
		}
		group "fonts" {
			sources = ["src/fonts/*"]
			dest    = "out/fonts"
		}
	`
	files := map[string]string{
		"src/css/a.css":     "a{}",
		"src/index.html":    "<p></p>",
		"src/fonts/a.woff2": "font",
	}
	spy := &atomic.Bool{}
	injected := errors.New("sass exploded")
	testApp, root, _ := app.SetupAppTest(t, pipeline, files, &mockFailModule{wasSpyExecuted: spy, injectedError: injected})

	// --- Act ---
	report, err := testApp.Build(context.Background(), app.BuildOptions{})

	// --- Assert ---
	require.NoError(t, err, "task failures are reported, not returned")
	require.True(t, report.Failed())
	require.False(t, spy.Load(), "the dependent's chain must not run")

	styles, _ := report.Result("styles")
	var transformErr *registry.TransformError
	require.ErrorAs(t, styles.Err, &transformErr)
	require.ErrorIs(t, styles.Err, injected)
	require.Equal(t, "explode", transformErr.Stage)

	html, _ := report.Result("html")
	require.Equal(t, executor.Failed, html.Status)
	var upstream *executor.UpstreamFailure
	require.ErrorAs(t, html.Err, &upstream)

	fonts, _ := report.Result("fonts")
	require.Equal(t, executor.Succeeded, fonts.Status)
	require.FileExists(t, root+"/out/fonts/a.woff2")
}
