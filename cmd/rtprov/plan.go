// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	goruntime "runtime"

	"github.com/invowk/rtprov/internal/provision"
	"github.com/invowk/rtprov/pkg/platform"

	"github.com/spf13/cobra"
)

func newPlanCommand(app *App) *cobra.Command {
	var platformName, arch string

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what provision would download and install",
		Long: `Show what provision would download and install, without touching the
network or the runtimes directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			var id platform.ID
			if platformName != "" {
				id, err = platform.Parse(platformName)
			} else {
				id, err = platform.Detect()
			}
			if err != nil {
				return setupFailure(err)
			}

			plan, err := provision.Plan(*cfg, id, arch)
			if err != nil {
				return setupFailure(err)
			}
			printPlan(app.stdout, plan)
			return nil
		},
	}

	planCmd.Flags().StringVar(&platformName, "platform", "", "target platform: windows, macos or linux (default: this host)")
	planCmd.Flags().StringVar(&arch, "arch", goruntime.GOARCH, "target CPU architecture (amd64 or arm64)")
	return planCmd
}

func printPlan(w io.Writer, plan *provision.PlanResult) {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Platform:"), plan.Platform)
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Runtimes directory:"), ValueStyle.Render(plan.Layout.Root))

	for _, step := range plan.Steps {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(string(step.Runtime)), step.Version)
		switch step.Source {
		case provision.SourceDownload:
			field(w, "source", string(step.Source))
			field(w, "url", ValueStyle.Render(step.URL))
			field(w, "file", step.FileName)
			if step.Format != "" {
				field(w, "format", string(step.Format))
			}
		case provision.SourceSystem:
			field(w, "source", fmt.Sprintf("%s (%s)", step.Source, step.Binary))
		case provision.SourcePip:
			field(w, "source", fmt.Sprintf("%s (%s==%s)", step.Source, step.Binary, step.Version))
		}
		field(w, "target", ValueStyle.Render(step.Target))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("Activation script:"), ValueStyle.Render(plan.Activation))
}

func field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s%s\n", labelStyle.Render(label+":"), value)
}
