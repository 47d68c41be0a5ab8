// Package app contains the core application logic. It wires the loaded
// pipeline into the registry, the task graph, the executor and the watch
// loop, decoupled from any specific entrypoint like a CLI.
package app
