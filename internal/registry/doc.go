// Package registry provides the central "glue" for the transform modules.
//
// The Registry stores the mapping between the transform names used in a
// pipeline file (e.g., "sass", "minify_css") and the compiled Go functions
// that implement them. Modules add their transforms through the Module
// interface during application startup.
//
// ChainFor turns an asset group into its ordered list of stages. Stages of
// one chain run strictly in the declared order, and the built-in `write`
// stage is always appended last: it is the only stage that touches the
// destination tree.
//
// After the modules are registered and the model is attached, Validate
// checks that every transform name referenced by a group is known,
// preventing a wide class of runtime errors.
package registry
