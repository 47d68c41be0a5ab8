package fsutil

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher matches forward-slash paths against a set of globs.
type Matcher struct {
	globs []glob.Glob
}

// CompileGlob compiles a single pattern. `*` stops at `/`, while `**`
// crosses directories and may match none of them, so "src/**/*.scss" also
// matches "src/a.scss".
func CompileGlob(pattern string) (glob.Glob, error) {
	normalized := strings.ReplaceAll(pattern, "/**/", "{/,/**/}")
	g, err := glob.Compile(normalized, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	return g, nil
}

// NewMatcher compiles every pattern.
func NewMatcher(patterns ...string) (*Matcher, error) {
	m := &Matcher{globs: make([]glob.Glob, 0, len(patterns))}
	for _, p := range patterns {
		g, err := CompileGlob(p)
		if err != nil {
			return nil, err
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether p matches at least one glob.
func (m *Matcher) Match(p string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.globs {
		if g.Match(p) {
			return true
		}
	}
	return false
}

// Len returns the number of compiled globs.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.globs)
}
