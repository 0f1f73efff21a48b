// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"errors"
	"fmt"

	"github.com/invowk/rtprov/internal/config"
	"github.com/invowk/rtprov/internal/installer"
	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/internal/resolve"
	"github.com/invowk/rtprov/pkg/platform"
)

// Plan step sources.
const (
	SourceDownload Source = "download"
	SourceSystem   Source = "system-provided"
	SourcePip      Source = "pip"
)

type (
	// Source says where a runtime comes from.
	Source string

	// PlanStep describes how one runtime would be provisioned.
	PlanStep struct {
		Runtime manifest.Name
		Version string
		Source  Source
		// URL, FileName and Format are set for SourceDownload.
		URL      string
		FileName string
		Format   platform.ArchiveFormat
		// Binary is the interpreter used for SourceSystem, or the package
		// name for SourcePip.
		Binary string
		// Target is the directory the runtime is installed into.
		Target string
	}

	// PlanResult is a dry-run description of a provisioning run.
	PlanResult struct {
		Platform platform.ID
		Layout   installer.Layout
		Steps    []PlanStep
		// Activation is the path of the activation script that would be written.
		Activation string
	}
)

// Plan resolves every runtime of cfg for the platform id without touching the
// network or the runtimes directory.
func Plan(cfg config.Config, id platform.ID, goarch string) (*PlanResult, error) {
	profile, err := platform.ProfileFor(id)
	if err != nil {
		return nil, err
	}
	layout, err := installer.NewLayout(string(cfg.RuntimesDir))
	if err != nil {
		return nil, err
	}
	res := resolve.New(cfg.Versions, cfg.ResolverOptions(goarch))

	python := PlanStep{Runtime: manifest.Python, Version: cfg.Versions.Python, Target: layout.PythonRoot()}
	spec, err := res.Resolve(manifest.Python, id)
	switch {
	case errors.Is(err, resolve.ErrNotApplicable):
		python.Source = SourceSystem
		python.Binary = profile.SystemPython
	case err != nil:
		return nil, fmt.Errorf("planning %s: %w", manifest.Python, err)
	default:
		python.setDownload(spec)
	}

	node := PlanStep{Runtime: manifest.NodeJS, Version: cfg.Versions.NodeJS}
	spec, err = res.Resolve(manifest.NodeJS, id)
	if err != nil {
		return nil, fmt.Errorf("planning %s: %w", manifest.NodeJS, err)
	}
	node.setDownload(spec)
	node.Target = layout.NodeHome(spec)

	return &PlanResult{
		Platform: id,
		Layout:   layout,
		Steps: []PlanStep{
			python,
			{
				Runtime: manifest.RobotFramework, Version: cfg.Versions.RobotFramework,
				Source: SourcePip, Binary: "robotframework", Target: layout.VenvDir(),
			},
			{
				Runtime: manifest.Jupyter, Version: cfg.Versions.Jupyter,
				Source: SourcePip, Binary: "notebook", Target: layout.VenvDir(),
			},
			node,
		},
		Activation: layout.ActivationScript(profile),
	}, nil
}

func (s *PlanStep) setDownload(spec resolve.DownloadSpec) {
	s.Source = SourceDownload
	s.URL = spec.URL
	s.FileName = spec.FileName
	s.Format = spec.Format
}
