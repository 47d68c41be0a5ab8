package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/hcl_adapter"
	"github.com/vk/themegrid/internal/yaml_adapter"
)

// LoaderFor picks the configuration loader from the file extension.
func LoaderFor(path string) (config.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return hcl_adapter.NewLoader(), nil
	case ".yaml", ".yml":
		return yaml_adapter.NewLoader(), nil
	default:
		return nil, &config.ConfigError{Field: "path", Err: fmt.Errorf("unsupported configuration format %q", filepath.Ext(path))}
	}
}
