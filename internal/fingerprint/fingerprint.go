// Package fingerprint summarizes a task's inputs and outputs so the
// executor can tell whether a task is stale.
//
// A fingerprint hashes the sorted (path, content) pairs of every input with
// xxhash and keeps the newest input modification time next to it. Two
// fingerprints with equal hashes are unchanged regardless of their mtimes.
// When no hash was ever recorded (a fresh process), staleness falls back to
// comparing the newest input mtime against the oldest destination artifact.
package fingerprint

import (
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is the summary of a task's input files.
type Fingerprint struct {
	Hash uint64
	// Newest is the newest modification time among the inputs.
	Newest time.Time
	Files  int
}

// Compute hashes the given files. Paths are sorted before hashing and every
// component is length-prefixed. A file that disappeared since it was listed
// contributes its path only.
func Compute(paths []string) (Fingerprint, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	d := xxhash.New()
	var fp Fingerprint
	var lenBuf [8]byte

	for _, p := range sorted {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(p)))
		_, _ = d.Write(lenBuf[:])
		_, _ = d.WriteString(p)

		native := filepath.FromSlash(p)
		info, err := os.Stat(native)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Fingerprint{}, err
		}
		content, err := os.ReadFile(native)
		if err != nil {
			return Fingerprint{}, err
		}
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(content)))
		_, _ = d.Write(lenBuf[:])
		_, _ = d.Write(content)

		fp.Files++
		if info.ModTime().After(fp.Newest) {
			fp.Newest = info.ModTime()
		}
	}

	fp.Hash = d.Sum64()
	return fp, nil
}

// Equal reports whether two fingerprints describe the same input contents.
func (f Fingerprint) Equal(o Fingerprint) bool {
	return f.Hash == o.Hash
}

// OldestOutput returns the oldest modification time among the given
// outputs. A directory contributes every regular file below it. The second
// result is false when no output exists.
func OldestOutput(paths []string) (time.Time, bool) {
	var oldest time.Time
	found := false
	visit := func(t time.Time) {
		if !found || t.Before(oldest) {
			oldest = t
		}
		found = true
	}

	for _, p := range paths {
		native := filepath.FromSlash(p)
		info, err := os.Stat(native)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			visit(info.ModTime())
			continue
		}
		_ = filepath.WalkDir(native, func(_ string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if fi, err := d.Info(); err == nil {
				visit(fi.ModTime())
			}
			return nil
		})
	}
	return oldest, found
}

// AllExist reports whether every path exists.
func AllExist(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(filepath.FromSlash(p)); err != nil {
			return false
		}
	}
	return true
}

// Record is what the executor remembers about a task's last successful run.
type Record struct {
	Fingerprint Fingerprint
	// Outputs are the files the run wrote or confirmed as up to date.
	Outputs []string
	LastRun time.Time
	// Failed marks a task whose last run failed, so the next run retries it
	// even when its inputs did not change.
	Failed bool
}

// Table is a concurrency-safe map of task id to Record. It only lives in
// memory; a fresh process starts empty and seeds from destination artifacts.
type Table struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{records: make(map[string]Record)}
}

// Get returns the record of a task.
func (t *Table) Get(id string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.records[id]
	return r, ok
}

// Put stores the record of a task.
func (t *Table) Put(id string, r Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[id] = r
}

// Delete forgets a task, e.g. after its outputs were cleaned.
func (t *Table) Delete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, id)
}

// Reset forgets every task.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = make(map[string]Record)
}
