package config

import (
	"errors"
	"fmt"
)

// ErrUnknownGroup is wrapped by a ConfigError when a group id is not declared.
var ErrUnknownGroup = errors.New("unknown asset group")

// ConfigError reports a bad or missing path mapping. It is fatal: nothing
// runs once configuration has failed.
type ConfigError struct {
	Group string
	Field string
	Err   error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Group != "" && e.Field != "":
		return fmt.Sprintf("config: group %q: %s: %v", e.Group, e.Field, e.Err)
	case e.Group != "":
		return fmt.Sprintf("config: group %q: %v", e.Group, e.Err)
	case e.Field != "":
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("config: %v", e.Err)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }
