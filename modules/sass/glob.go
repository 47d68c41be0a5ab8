package sass

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/vk/themegrid/internal/fsutil"
	"github.com/vk/themegrid/internal/registry"
)

var globImport = regexp.MustCompile(`@import\s+["']([^"']*[*?{][^"']*)["'][ \t]*;?`)

// ExpandGlobImports replaces `@import "blocks/**/*.scss";` with one import
// per matching file, relative to the importing file, in sorted order.
func ExpandGlobImports(ctx context.Context, b *registry.Batch, f *registry.File) error {
	dir := path.Dir(f.Source)
	var expandErr error

	out := globImport.ReplaceAllStringFunc(string(f.Content), func(stmt string) string {
		pattern := globImport.FindStringSubmatch(stmt)[1]
		matches, err := fsutil.ExpandGlobs([]string{path.Join(dir, pattern)})
		if err != nil {
			expandErr = fmt.Errorf("%s: %w", f.Path, err)
			return stmt
		}
		var sb strings.Builder
		for _, m := range matches {
			if m == f.Source {
				continue
			}
			fmt.Fprintf(&sb, "@import %q;\n", strings.TrimPrefix(m, dir+"/"))
		}
		return strings.TrimSuffix(sb.String(), "\n")
	})
	if expandErr != nil {
		return expandErr
	}
	f.Content = []byte(out)
	return nil
}
