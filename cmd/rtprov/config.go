// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/invowk/rtprov/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `rtprov config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage rtprov configuration",
		Long: `Manage rtprov configuration.

Configuration is read from, in order:
  1. the file given with --config
  2. the user config file:
     - Linux: ~/.config/rtprov/config.cue
     - macOS: ~/Library/Application Support/rtprov/config.cue
     - Windows: %APPDATA%\rtprov\config.cue
  3. ./rtprov.cue

RTPROV_* environment variables override file values, for example
RTPROV_RUNTIMES_DIR or RTPROV_VERSIONS_NODEJS.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			source := SubtitleStyle.Render("(using defaults)")
			if path != "" {
				source = ValueStyle.Render(path)
			}
			fmt.Fprintf(app.stdout, "%s %s\n\n", TitleStyle.Render("Config file:"), source)
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, written, err := config.CreateDefaultConfig("", force)
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			if !written {
				fmt.Fprintf(app.stdout, "%s %s already exists (use --force to overwrite)\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			path, err := config.ConfigFilePath("")
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "Config directory: %s\n", dir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", path)
			fmt.Fprintf(app.stdout, "Project file: %s\n", config.LocalConfigFile)
			return nil
		},
	})

	return cfgCmd
}
