// Package fsutil provides file system utility functions: glob expansion
// with `**` support, path containment checks and content-aware writes.
package fsutil

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ExpandGlobs returns every regular file matching at least one of the
// absolute, forward-slash globs. The result is sorted and free of duplicates.
// A glob whose static base does not exist matches nothing.
func ExpandGlobs(globs []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range globs {
		m, err := CompileGlob(pattern)
		if err != nil {
			return nil, err
		}

		base := StaticBase(pattern)
		info, err := os.Stat(filepath.FromSlash(base))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if !info.IsDir() {
			if m.Match(base) {
				if _, ok := seen[base]; !ok {
					seen[base] = struct{}{}
					files = append(files, base)
				}
			}
			continue
		}

		err = filepath.WalkDir(filepath.FromSlash(base), func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			slashed := filepath.ToSlash(p)
			if !m.Match(slashed) {
				return nil
			}
			if _, ok := seen[slashed]; !ok {
				seen[slashed] = struct{}{}
				files = append(files, slashed)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}

// StaticBase returns the longest directory prefix of pattern that contains
// no glob meta characters. For a pattern without any, it returns the
// pattern itself.
func StaticBase(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[{\\")
	if idx < 0 {
		return path.Clean(pattern)
	}
	prefix := pattern[:idx]
	slash := strings.LastIndex(prefix, "/")
	if slash < 0 {
		return "."
	}
	if slash == 0 {
		return "/"
	}
	return path.Clean(prefix[:slash])
}

// RelToBase returns the path of file below the static base of the glob
// that matched it. A literal pattern is its own base, so the file keeps
// only its name.
func RelToBase(file, base string) string {
	if file == base {
		return path.Base(file)
	}
	return strings.TrimPrefix(file, strings.TrimSuffix(base, "/")+"/")
}

// WithinDir reports whether p is dir itself or lies below it. Both must be
// clean forward-slash paths.
func WithinDir(p, dir string) bool {
	if p == dir {
		return true
	}
	if dir == "/" {
		return strings.HasPrefix(p, "/")
	}
	return strings.HasPrefix(p, dir+"/")
}

// WriteIfChanged writes data to name unless the file already holds exactly
// the same bytes. It reports whether a write happened.
func WriteIfChanged(name string, data []byte) (bool, error) {
	existing, err := os.ReadFile(name)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
