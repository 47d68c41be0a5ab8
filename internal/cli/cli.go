package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/vk/themegrid/internal/app"
	"github.com/vk/themegrid/internal/config"
	"github.com/vk/themegrid/internal/dag"
)

// Exit codes.
const (
	ExitTaskFailure = 1
	ExitUsage       = 2
)

// DefaultConfigPath is the pipeline file used without --config.
const DefaultConfigPath = "themegrid.hcl"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	logLevel    string
	logFormat   string
	concurrency int
	envFile     string

	outW    io.Writer
	environ func() []string
}

// Execute parses args, runs the selected command and maps its error to an
// *ExitError. It returns nil on success.
func Execute(ctx context.Context, outW io.Writer, args []string) error {
	root := NewRootCommand(outW)
	root.SetArgs(args)
	return toExitError(root.ExecuteContext(ctx))
}

// NewRootCommand builds the command tree.
func NewRootCommand(outW io.Writer) *cobra.Command {
	opts := &rootOptions{outW: outW, environ: os.Environ}

	root := &cobra.Command{
		Use:   "themegrid",
		Short: "Incremental front-end asset pipeline for themes",
		Long: `themegrid builds the assets of a theme (styles, scripts, HTML, images, sprites)
from a declarative pipeline file, rebuilding only what changed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", DefaultConfigPath, "Path to the pipeline file (.hcl, .yaml or .yml).")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Number of concurrent workers. 0 uses the pipeline setting.")
	flags.StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file. Defaults to .env when present.")

	root.AddCommand(
		newBuildCommand(opts),
		newWatchCommand(opts),
		newRunCommand(opts),
		newCleanCommand(opts),
		newGraphCommand(opts),
		newListenCommand(opts),
	)
	for _, alias := range groupAliases {
		root.AddCommand(newAliasCommand(opts, alias))
	}
	return root
}

// loadEnv loads the .env file. An explicit --env-file must exist; the
// default .env is optional.
func (o *rootOptions) loadEnv() error {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("failed to load env file %q: %v", o.envFile, err)}
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

// appConfig merges flags with the environment. Flags the user set win.
func (o *rootOptions) appConfig(cmd *cobra.Command) (*app.Config, error) {
	environ := o.environ()
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	logLevel := o.logLevel
	if v := env[config.EnvPrefix+"LOG_LEVEL"]; v != "" && !cmd.Flags().Changed("log-level") {
		logLevel = v
	}

	cfg, err := app.NewConfig(app.Config{
		ConfigPath:  o.configPath,
		Vars:        config.VarOverridesFromEnv(environ),
		LogFormat:   strings.ToLower(o.logFormat),
		LogLevel:    strings.ToLower(logLevel),
		Concurrency: o.concurrency,
	})
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return cfg, nil
}

// newApp prepares the application for a command.
func (o *rootOptions) newApp(cmd *cobra.Command) (*app.App, error) {
	if err := o.loadEnv(); err != nil {
		return nil, err
	}
	cfg, err := o.appConfig(cmd)
	if err != nil {
		return nil, err
	}
	slog.Debug("CLI configuration resolved.", "config", cfg.ConfigPath)
	return app.NewApp(o.outW, cfg, nil)
}

// toExitError maps an error onto an exit code. Configuration problems and
// cycles are usage errors; everything else is a failure.
func toExitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	var cfgErr *config.ConfigError
	var cycleErr *dag.CycleError
	if errors.As(err, &cfgErr) || errors.As(err, &cycleErr) {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	if isUsageError(err) {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return &ExitError{Code: ExitTaskFailure, Message: err.Error()}
}

// isUsageError recognizes cobra's argument and flag errors, which are
// plain errors.
func isUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "invalid argument", "accepts ", "requires at least", "flag needs an argument"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
