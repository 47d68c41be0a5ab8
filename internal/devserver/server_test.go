package devserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/reload"
)

func testCtx() context.Context { return ctxlog.Discard(context.Background()) }

func TestRoutes(t *testing.T) {
	// Arrange
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>theme</h1>"), 0o644))
	s := New(testCtx(), Config{Root: filepath.ToSlash(root), LiveReload: reload.NewLiveReload(nil)})

	testCases := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{name: "health", path: "/health", status: http.StatusOK, body: "OK\n"},
		{name: "static file", path: "/index.html", status: http.StatusMovedPermanently},
		{name: "directory index", path: "/", status: http.StatusOK, body: "<h1>theme</h1>"},
		{name: "missing", path: "/nope.css", status: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			// Assert
			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestRun_GracefulShutdown(t *testing.T) {
	// Arrange
	s := New(testCtx(), Config{Addr: "127.0.0.1:0", Root: filepath.ToSlash(t.TempDir())})
	ctx, cancel := context.WithCancel(testCtx())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var addr string
	select {
	case addr = <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "OK\n", string(body))

	// Act
	cancel()

	// Assert
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
