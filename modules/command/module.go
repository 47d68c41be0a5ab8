// Package command runs external programs as transforms. Every file is
// piped through the program on stdin and replaced by its stdout.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/vk/themegrid/internal/registry"
)

// WebP is the built-in conversion registered as `webp` unless the
// configuration declares its own command of that name.
var WebP = &config.Command{
	Name: "webp",
	Run:  []string{"cwebp", "-quiet", "-o", "-", "--", "-"},
	Ext:  ".webp",
}

var webpInputs = []string{".jpg", ".jpeg", ".png"}

// Module implements the registry.Module interface for this package.
type Module struct {
	// Commands are the `command` blocks of the configuration.
	Commands map[string]*config.Command
}

// Register registers one transform per command, plus `webp`.
func (m *Module) Register(r *registry.Registry) {
	names := make([]string, 0, len(m.Commands))
	for name := range m.Commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := m.Commands[name]
		var exts []string
		if name == WebP.Name {
			exts = webpInputs
		}
		r.RegisterTransform(name, registry.FilterExt(exts, Transform(cmd)))
	}
	if _, ok := m.Commands[WebP.Name]; !ok {
		r.RegisterTransform(WebP.Name, registry.FilterExt(webpInputs, Transform(WebP)))
	}
}

// Transform returns the per-file function of a command. The placeholders
// `{src}` and `{path}` in its arguments expand to the absolute source path
// and the output path of the file.
func Transform(cmd *config.Command) func(ctx context.Context, b *registry.Batch, f *registry.File) error {
	return func(ctx context.Context, b *registry.Batch, f *registry.File) error {
		logger := ctxlog.FromContext(ctx).With("group", b.Group, "stage", cmd.Name)
		if len(cmd.Run) == 0 {
			return fmt.Errorf("command %q has nothing to run", cmd.Name)
		}

		args := make([]string, len(cmd.Run)-1)
		repl := strings.NewReplacer("{src}", f.Source, "{path}", f.Path)
		for i, a := range cmd.Run[1:] {
			args[i] = repl.Replace(a)
		}

		c := exec.CommandContext(ctx, cmd.Run[0], args...)
		c.Dir = b.BaseDir
		c.Stdin = bytes.NewReader(f.Content)
		var stdout, stderr bytes.Buffer
		c.Stdout = &stdout
		c.Stderr = &stderr

		logger.Debug("Running command.", "file", f.Path, "argv", cmd.Run)
		if err := c.Run(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				return fmt.Errorf("%s: %s: %w", f.Path, cmd.Run[0], err)
			}
			return fmt.Errorf("%s: %s: %w: %s", f.Path, cmd.Run[0], err, msg)
		}

		f.Content = stdout.Bytes()
		if cmd.Ext != "" {
			f.SetExt("." + strings.TrimPrefix(cmd.Ext, "."))
		}
		return nil
	}
}
