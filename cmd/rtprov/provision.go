// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProvisionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Install the pinned runtimes into the runtimes directory",
		Long: `Install the pinned runtimes into the runtimes directory.

The interpreter runtime is installed first (a virtual environment with Robot
Framework and Jupyter Notebook), then the Node.js runtime. The run stops at the
first failing step and exits with status 1. Every step is safe to repeat.`,
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

			result := orch.Run(cmd.Context())
			if !result.Success {
				return &ExitError{Code: result.ExitCode(), Err: provisionFailure(result.Err)}
			}

			names := make([]string, 0, len(result.Completed))
			for _, name := range result.Completed {
				names = append(names, string(name))
			}
			fmt.Fprintf(app.stdout, "%s Provisioned %s into %s\n",
				SuccessStyle.Render("✓"), strings.Join(names, ", "), ValueStyle.Render(orch.Layout().Root))
			return nil
		},
	}
}
