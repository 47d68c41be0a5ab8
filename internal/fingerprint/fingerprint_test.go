package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, p, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return filepath.ToSlash(p)
}

func TestCompute(t *testing.T) {
	dir := t.TempDir()
	a := write(t, filepath.Join(dir, "a.scss"), "a { color: red }")
	b := write(t, filepath.Join(dir, "b.js"), "console.log(1)")

	t.Run("order independent", func(t *testing.T) {
		fp1, err := Compute([]string{a, b})
		require.NoError(t, err)
		fp2, err := Compute([]string{b, a})
		require.NoError(t, err)

		assert.True(t, fp1.Equal(fp2))
		assert.Equal(t, 2, fp1.Files)
	})

	t.Run("touch without edit keeps the hash", func(t *testing.T) {
		// Arrange
		before, err := Compute([]string{a})
		require.NoError(t, err)
		later := time.Now().Add(time.Hour)
		require.NoError(t, os.Chtimes(filepath.FromSlash(a), later, later))

		// Act
		after, err := Compute([]string{a})

		// Assert
		require.NoError(t, err)
		assert.True(t, before.Equal(after))
		assert.True(t, after.Newest.After(before.Newest))
	})

	t.Run("content change changes the hash", func(t *testing.T) {
		before, err := Compute([]string{a})
		require.NoError(t, err)
		write(t, filepath.FromSlash(a), "a { color: blue }")

		after, err := Compute([]string{a})
		require.NoError(t, err)
		assert.False(t, before.Equal(after))
	})

	t.Run("missing file contributes its path", func(t *testing.T) {
		gone := filepath.ToSlash(filepath.Join(dir, "gone.css"))
		fp, err := Compute([]string{gone})
		require.NoError(t, err)
		assert.Equal(t, 0, fp.Files)

		empty, err := Compute(nil)
		require.NoError(t, err)
		assert.False(t, fp.Equal(empty))
	})
}

func TestOldestOutput(t *testing.T) {
	dir := t.TempDir()
	old := write(t, filepath.Join(dir, "out", "css", "old.css"), "x")
	write(t, filepath.Join(dir, "out", "js", "new.js"), "y")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.FromSlash(old), past, past))

	got, ok := OldestOutput([]string{filepath.ToSlash(filepath.Join(dir, "out"))})
	require.True(t, ok)
	assert.WithinDuration(t, past, got, time.Second)

	_, ok = OldestOutput([]string{filepath.ToSlash(filepath.Join(dir, "missing"))})
	assert.False(t, ok)
}

func TestTable(t *testing.T) {
	tbl := NewTable()
	_, ok := tbl.Get("styles")
	assert.False(t, ok)

	tbl.Put("styles", Record{Fingerprint: Fingerprint{Hash: 42}, Outputs: []string{"/out/style.css"}})
	r, ok := tbl.Get("styles")
	require.True(t, ok)
	assert.Equal(t, uint64(42), r.Fingerprint.Hash)

	tbl.Delete("styles")
	_, ok = tbl.Get("styles")
	assert.False(t, ok)

	tbl.Put("scripts", Record{})
	tbl.Reset()
	_, ok = tbl.Get("scripts")
	assert.False(t, ok)
}

func TestAllExist(t *testing.T) {
	p := write(t, filepath.Join(t.TempDir(), "x.css"), "x")
	assert.True(t, AllExist([]string{p}))
	assert.False(t, AllExist([]string{p, p + ".missing"}))
	assert.True(t, AllExist(nil))
}
