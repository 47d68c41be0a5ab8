package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/themegrid/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// ExecutionRecord holds the start and end times of one transform run.
// It is shared across the integration test packages.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// WriteTree creates files below root. Keys are slash-separated paths.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// SetupAppTest writes the pipeline file into a temporary theme directory
// and creates an app for it. The app is closed when the test ends.
func SetupAppTest(t *testing.T, pipeline string, files map[string]string, modules ...registry.Module) (*App, string, *SafeBuffer) {
	t.Helper()

	root := t.TempDir()
	WriteTree(t, root, files)
	WriteTree(t, root, map[string]string{"themegrid.hcl": pipeline})

	logBuffer := &SafeBuffer{}
	appConfig := &Config{ConfigPath: filepath.Join(root, "themegrid.hcl"), LogLevel: "debug"}
	testApp, err := NewApp(logBuffer, appConfig, nil, modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = testApp.Close()
		if os.Getenv("THEMEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, root, logBuffer
}
