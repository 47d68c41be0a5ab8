package include

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/vk/themegrid/internal/registry"
)

var (
	imgTag  = regexp.MustCompile(`(?i)<img\b[^>]*>`)
	srcAttr = regexp.MustCompile(`(?i)\bsrc\s*=\s*["']([^"']+)["']`)
	rasters = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
)

// WebPPicture wraps every <img> pointing at a JPEG or PNG in a <picture>
// with a WebP <source>. Images already inside a <picture> are left alone.
func WebPPicture(ctx context.Context, b *registry.Batch, f *registry.File) error {
	content := f.Content
	var out bytes.Buffer
	last := 0

	for _, loc := range imgTag.FindAllIndex(content, -1) {
		tag := content[loc[0]:loc[1]]
		m := srcAttr.FindSubmatch(tag)
		if m == nil || insidePicture(content[:loc[0]]) {
			continue
		}
		src := string(m[1])
		ext := strings.ToLower(path.Ext(src))
		if !rasters[ext] {
			continue
		}
		webp := strings.TrimSuffix(src, path.Ext(src)) + ".webp"

		out.Write(content[last:loc[0]])
		fmt.Fprintf(&out, `<picture><source srcset="%s" type="image/webp">%s</picture>`, webp, tag)
		last = loc[1]
	}
	if last == 0 {
		return nil
	}
	out.Write(content[last:])
	f.Content = out.Bytes()
	return nil
}

func insidePicture(before []byte) bool {
	lower := bytes.ToLower(before)
	open := bytes.LastIndex(lower, []byte("<picture"))
	return open >= 0 && open > bytes.LastIndex(lower, []byte("</picture"))
}
