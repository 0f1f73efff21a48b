// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "Report the versions of the provisioned runtimes",
		Long: `Run the provisioned interpreter and node binaries with --version and print
what they report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			orch, err := app.orchestrator(cfg)
			if err != nil {
				return err
			}

			versions, err := orch.Versions(cmd.Context())
			if err != nil {
				return versionsFailure(err)
			}
			field(app.stdout, "python", versions.Python)
			field(app.stdout, "nodejs", versions.NodeJS)
			return nil
		},
	}
}
