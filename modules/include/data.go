package include

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/themegrid/internal/registry"
)

var placeholder = regexp.MustCompile(`@@([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*)`)

// Substitute replaces `@@name` and `@@name.nested` placeholders with values
// from the group's data file. Unknown names are left as they are.
func Substitute(ctx context.Context, b *registry.Batch, f *registry.File) error {
	if len(b.Data) == 0 {
		return nil
	}
	f.Content = placeholder.ReplaceAllFunc(f.Content, func(m []byte) []byte {
		key := string(m[2:])
		if key == "include" {
			return m
		}
		v, ok := lookup(b.Data, key)
		if !ok {
			return m
		}
		return []byte(format(v))
	})
	return nil
}

func lookup(data map[string]any, key string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(key, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
