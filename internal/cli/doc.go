// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates flags, the environment and an optional .env file into the
// application's configuration and dispatches to the app's operations.
package cli
