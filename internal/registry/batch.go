package registry

import (
	"context"
	"path"
	"strings"
)

// File is one asset flowing through a transform chain.
type File struct {
	// Path is the output path relative to the destination directory, using
	// forward slashes.
	Path string
	// Source is the absolute path the file was read from. Files created by a
	// stage (a bundle, a sprite) carry the first contributing source.
	Source  string
	Content []byte
}

// Ext returns the lower-cased extension of the file's output path.
func (f *File) Ext() string {
	return strings.ToLower(path.Ext(f.Path))
}

// SetExt replaces the extension of the output path.
func (f *File) SetExt(ext string) {
	f.Path = strings.TrimSuffix(f.Path, path.Ext(f.Path)) + ext
}

// Batch is the unit a stage transforms: every file of one asset group plus
// the group's metadata.
type Batch struct {
	Group   string
	BaseDir string
	DestDir string
	Files   []*File
	// Data holds the decoded JSON data file of the group, if any.
	Data    map[string]any
	Options map[string]string
	// Written lists the absolute paths the write stage produced or found
	// already up to date.
	Written []string
	// Changed counts the files the write stage actually rewrote.
	Changed int
}

// Option returns the named group option, or def when it is not set.
func (b *Batch) Option(key, def string) string {
	if v, ok := b.Options[key]; ok && v != "" {
		return v
	}
	return def
}

// Func is a single transform. It receives the batch produced by the
// previous stage and returns the batch for the next one. Implementations
// may modify the batch in place.
type Func func(ctx context.Context, b *Batch) (*Batch, error)

// Stage is a named transform in a chain.
type Stage struct {
	Name string
	Fn   Func
}

// FilterExt applies fn to every file whose extension is one of exts and
// leaves the others untouched.
func FilterExt(exts []string, fn func(ctx context.Context, b *Batch, f *File) error) Func {
	return func(ctx context.Context, b *Batch) (*Batch, error) {
		for _, f := range b.Files {
			if !hasExt(f, exts) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := fn(ctx, b, f); err != nil {
				return nil, err
			}
		}
		return b, nil
	}
}

func hasExt(f *File, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	e := f.Ext()
	for _, x := range exts {
		if e == x {
			return true
		}
	}
	return false
}
