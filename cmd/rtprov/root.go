// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/invowk/rtprov/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rtprov",
		Short: "Provision bundled language runtimes",
		Long: TitleStyle.Render("rtprov") + SubtitleStyle.Render(" - bundled runtime provisioning") + `

rtprov installs a Python interpreter environment (with Robot Framework and
Jupyter Notebook) and a Node.js runtime into a self-contained directory that
an application can ship with.

` + SubtitleStyle.Render("Examples:") + `
  rtprov plan                   Show what would be downloaded and installed
  rtprov plan --platform windows
  rtprov provision              Provision into ./resources/runtimes
  rtprov versions               Report the versions of a provisioned tree
  rtprov config init            Write a default configuration file`,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default is <user config dir>/rtprov/config.cue)")
	rootCmd.PersistentFlags().StringVar(&app.flags.manifestPath, "manifest", "", "runtime manifest (package.json, .toml or .yaml) overriding configured versions")

	rootCmd.AddCommand(
		newProvisionCommand(app),
		newPlanCommand(app),
		newVersionsCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Run executes the CLI with args and returns the process exit status.
func Run(ctx context.Context, args []string, deps Dependencies) types.ExitCode {
	app := NewApp(deps)
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)

	return exitCodeOf(fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.renderError),
	))
}

// Execute runs the CLI with the process arguments and exits.
// This is called by main.main().
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], Dependencies{}).Process())
}
