package include

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"github.com/vk/themegrid/internal/registry"
)

// maxDepth bounds nested includes so a file including itself fails instead
// of recursing forever.
const maxDepth = 16

var includeDirective = regexp.MustCompile(`@@include\(\s*['"]([^'"]+)['"]\s*\)`)

// Include replaces every `@@include('partial.html')` with the contents of
// the referenced file, resolved relative to the including file.
func Include(ctx context.Context, b *registry.Batch, f *registry.File) error {
	out, err := expand(f.Content, path.Dir(f.Source), 0)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Path, err)
	}
	f.Content = out
	return nil
}

func expand(content []byte, dir string, depth int) ([]byte, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("includes nested deeper than %d levels", maxDepth)
	}
	var firstErr error
	out := includeDirective.ReplaceAllFunc(content, func(directive []byte) []byte {
		if firstErr != nil {
			return directive
		}
		name := string(includeDirective.FindSubmatch(directive)[1])
		target := name
		if !path.IsAbs(target) {
			target = path.Join(dir, name)
		}
		partial, err := os.ReadFile(filepath.FromSlash(target))
		if err != nil {
			firstErr = fmt.Errorf("include %q: %w", name, err)
			return directive
		}
		nested, err := expand(partial, path.Dir(target), depth+1)
		if err != nil {
			firstErr = err
			return directive
		}
		return nested
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
