package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable the pipeline reads.
const EnvPrefix = "THEMEGRID_"

// VarOverridesFromEnv collects THEMEGRID_VAR_<name> variables into a map
// keyed by the lower-cased var name.
func VarOverridesFromEnv(environ []string) map[string]string {
	prefix := EnvPrefix + "VAR_"
	out := make(map[string]string)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(k, prefix))
		if name != "" {
			out[name] = v
		}
	}
	return out
}

// ApplyEnv overrides pipeline and serve settings from the environment.
// Call it after ApplyDefaults.
func (m *Model) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvPrefix + "CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return &ConfigError{Field: "concurrency", Err: fmt.Errorf("invalid %sCONCURRENCY %q", EnvPrefix, v)}
		}
		m.Pipeline.Concurrency = n
	}
	if v, ok := lookup(EnvPrefix + "SERVE_ADDR"); ok && v != "" {
		m.Serve.Addr = v
	}
	return nil
}
