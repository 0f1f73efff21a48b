// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"context"
	"path/filepath"

	"github.com/invowk/rtprov/internal/archive"
	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/internal/resolve"
)

// Archive installs a runtime distributed as a compressed archive. The archive
// is kept on disk when extraction fails.
type Archive struct {
	deps    Deps
	runtime manifest.Name
	steps   stepRunner
}

// NewArchive creates the archive installer for runtime.
func NewArchive(deps Deps, runtime manifest.Name) *Archive {
	return &Archive{
		deps:    deps,
		runtime: runtime,
		steps:   stepRunner{runtime: runtime, logger: deps.logger()},
	}
}

// Runtime implements Installer.
func (a *Archive) Runtime() manifest.Name { return a.runtime }

// Install fetches, extracts and deletes the runtime archive.
func (a *Archive) Install(ctx context.Context) error {
	d := a.deps
	root := d.Layout.NodeRoot()

	if err := a.steps.do(StepDirectoryCreate, func() error { return mkdir(root) }); err != nil {
		return err
	}

	var spec resolve.DownloadSpec
	if err := a.steps.do(StepResolve, func() (err error) {
		spec, err = d.Resolver.Resolve(a.runtime, d.Profile.ID)
		return err
	}); err != nil {
		return err
	}

	dest := filepath.Join(root, spec.FileName)
	if err := a.steps.do(StepFetchArchive, func() error {
		d.logger().Info("downloading archive", "runtime", a.runtime, "version", spec.Version, "file", spec.FileName)
		return d.Fetcher.Fetch(ctx, spec.URL, dest)
	}); err != nil {
		return err
	}
	if err := a.steps.do(StepExtract, func() error {
		return archive.Extract(dest, root, spec.Format)
	}); err != nil {
		return err
	}
	return a.steps.do(StepDeleteArchive, func() error { return remove(dest) })
}
