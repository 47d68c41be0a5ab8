package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/themegrid/internal/app"
	"github.com/vk/themegrid/internal/executor"
	"github.com/vk/themegrid/internal/reload"
)

// groupAliases are shortcuts for `run <group>` named after the usual
// theme asset groups.
var groupAliases = []string{"styles", "scripts", "html", "images", "webp", "sprite", "data", "fonts", "files"}

// reportResult prints the summary and turns a failed report into exit code 1.
func reportResult(o *rootOptions, report *executor.BuildReport) error {
	fmt.Fprintln(o.outW, report.Summary())
	if report.Failed() {
		return &ExitError{Code: ExitTaskFailure, Message: fmt.Sprintf("build failed: %v", report.Err())}
	}
	return nil
}

func newBuildCommand(o *rootOptions) *cobra.Command {
	var opts app.BuildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run a full incremental build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Build(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return reportResult(o, report)
		},
	}
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "Remove the destination root before building.")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Rebuild every group regardless of changes.")
	return cmd
}

func newWatchCommand(o *rootOptions) *cobra.Command {
	var opts app.WatchOptions
	var noServe bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild affected groups on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if noServe {
				opts.Serve = false
			}
			return a.Watch(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Clean, "clean", false, "Remove the destination root before the initial build.")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Rebuild every group in the initial build.")
	cmd.Flags().BoolVar(&opts.Serve, "serve", true, "Serve the destination with live reload.")
	cmd.Flags().BoolVar(&noServe, "no-serve", false, "Do not start the development server.")
	return cmd
}

func runGroups(cmd *cobra.Command, o *rootOptions, ids []string) error {
	a, err := o.newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.RunGroups(cmd.Context(), ids...)
	if err != nil {
		return err
	}
	return reportResult(o, report)
}

func newRunCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <group>...",
		Short: "Rebuild the named groups only",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroups(cmd, o, args)
		},
	}
}

func newAliasCommand(o *rootOptions, group string) *cobra.Command {
	return &cobra.Command{
		Use:   group,
		Short: fmt.Sprintf("Rebuild the %q group", group),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGroups(cmd, o, []string{group})
		},
	}
}

func newCleanCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the destination root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Clean(cmd.Context())
		},
	}
}

func newGraphCommand(o *rootOptions) *cobra.Command {
	var clean bool
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the tasks in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.PrintGraph(cmd.Context(), o.outW, clean)
		},
	}
	cmd.Flags().BoolVar(&clean, "clean", false, "Include the clean task.")
	return cmd
}

func newListenCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "listen [url]",
		Short: "Print reload notifications from a running watch server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := "http://localhost:3000/socket.io/"
			if len(args) == 1 {
				url = args[0]
			}
			ctx := cmd.Context()
			client, err := reload.Dial(ctx, url)
			if err != nil {
				return err
			}
			defer client.Close()

			client.OnNotification(func(n reload.Notification) {
				line := fmt.Sprintf("%s: %s", n.Group, n.Status)
				if len(n.Errors) > 0 {
					line += " (" + strings.Join(n.Errors, "; ") + ")"
				}
				fmt.Fprintln(o.outW, line)
			})
			client.OnReport(func(s reload.Summary) {
				fmt.Fprintf(o.outW, "cycle: %d succeeded, %d skipped, %d failed\n", s.Succeeded, s.Skipped, s.Failed)
			})
			<-ctx.Done()
			return nil
		},
	}
}
