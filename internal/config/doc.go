// Package config defines the format-agnostic configuration model for the
// pipeline, along with the Loader interface for reading it from various
// sources and the Resolver that turns asset groups into concrete paths.
//
// The `config.Model` is the single source of truth for the `dag`,
// `registry` and `executor` packages. Concrete loaders, such as for HCL and
// YAML, are provided in separate packages.
package config
