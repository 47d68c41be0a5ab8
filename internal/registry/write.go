package registry

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/fsutil"
)

// Write is the built-in final stage. It writes every file below the
// destination directory and leaves files whose content is already
// identical untouched, so their modification times stay stable.
func Write(ctx context.Context, b *Batch) (*Batch, error) {
	logger := ctxlog.FromContext(ctx).With("group", b.Group)

	for _, f := range b.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := path.Join(b.DestDir, f.Path)
		if !fsutil.WithinDir(target, b.DestDir) {
			return nil, fmt.Errorf("output %q escapes destination %q", f.Path, b.DestDir)
		}

		wrote, err := fsutil.WriteIfChanged(filepath.FromSlash(target), f.Content)
		if err != nil {
			return nil, fmt.Errorf("writing %s: %w", target, err)
		}
		if wrote {
			b.Changed++
			logger.Debug("Wrote file.", "path", target, "bytes", len(f.Content))
		}
		b.Written = append(b.Written, target)
	}
	return b, nil
}
