package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the pipeline file at path and translates it into the
	// format-agnostic model. Entries of vars replace the values declared in
	// the file before any interpolation happens.
	Load(ctx context.Context, path string, vars map[string]string) (*Model, error)
}
