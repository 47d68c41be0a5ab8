package include

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/themegrid/internal/registry"
)

// webpClass is set on the root element by the browser-side WebP check.
const webpClass = ".webp"

var (
	cssRule   = regexp.MustCompile(`([^{}]*)\{([^{}]*)\}`)
	rasterURL = regexp.MustCompile(`(?i)(url\(\s*['"]?)([^'")]+?)\.(jpe?g|png)((?:\?[^'")]*)?['"]?\s*\))`)
)

// WebPCSS follows every rule whose declarations load a JPEG or PNG with a
// rule scoped to `.webp` that loads the WebP variant instead. Only the
// image declarations are repeated. At-rule bodies such as @font-face are
// left alone; rules nested in @media keep their block.
func WebPCSS(ctx context.Context, b *registry.Batch, f *registry.File) error {
	content := f.Content
	var out bytes.Buffer
	last := 0

	for _, loc := range cssRule.FindAllSubmatchIndex(content, -1) {
		selector := ruleSelector(string(content[loc[2]:loc[3]]))
		if selector == "" || strings.HasPrefix(selector, "@") {
			continue
		}
		var decls []string
		for _, d := range strings.Split(string(content[loc[4]:loc[5]]), ";") {
			if rasterURL.MatchString(d) {
				decls = append(decls, strings.TrimSpace(rasterURL.ReplaceAllString(d, "${1}${2}.webp${4}")))
			}
		}
		if len(decls) == 0 {
			continue
		}

		parts := strings.Split(selector, ",")
		for i, p := range parts {
			parts[i] = webpClass + " " + strings.TrimSpace(p)
		}
		out.Write(content[last:loc[1]])
		fmt.Fprintf(&out, "\n%s{%s}", strings.Join(parts, ", "), strings.Join(decls, ";"))
		last = loc[1]
	}
	if last == 0 {
		return nil
	}
	out.Write(content[last:])
	f.Content = out.Bytes()
	return nil
}

// ruleSelector drops whatever precedes the selector in the text before a
// block: a finished statement or a comment.
func ruleSelector(s string) string {
	if i := strings.LastIndex(s, ";"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "*/"); i >= 0 {
		s = s[i+2:]
	}
	return strings.TrimSpace(s)
}
