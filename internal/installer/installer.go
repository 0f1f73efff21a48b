// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/internal/resolve"
	"github.com/invowk/rtprov/internal/runner"
	"github.com/invowk/rtprov/internal/settle"
	"github.com/invowk/rtprov/pkg/platform"

	"github.com/charmbracelet/log"
)

// Installer steps, in the order they can occur.
const (
	StepResolve               Step = "resolve"
	StepDirectoryCreate       Step = "directory-create"
	StepFetchInstaller        Step = "fetch-installer"
	StepSilentInstall         Step = "invoke-silent-install"
	StepDeleteInstaller       Step = "delete-installer"
	StepSettleInterpreter     Step = "settle-interpreter"
	StepCreateEnvironment     Step = "create-isolated-environment"
	StepSettleEnvironment     Step = "settle-environment"
	StepUpgradePackageManager Step = "upgrade-package-manager"
	StepInstallPackage        Step = "install-fixed-package"
	StepWriteActivation       Step = "write-activation-script"
	StepFetchArchive          Step = "fetch-archive"
	StepExtract               Step = "extract"
	StepDeleteArchive         Step = "delete-archive-file"
)

type (
	// Step names one installer step in logs and errors.
	Step string

	// Installer provisions one runtime.
	Installer interface {
		Runtime() manifest.Name
		Install(ctx context.Context) error
	}

	// Fetcher downloads a URL to a local file.
	Fetcher interface {
		Fetch(ctx context.Context, url, dest string) error
	}

	// Deps are the collaborators shared by all installers of a run.
	Deps struct {
		Profile  platform.Profile
		Layout   Layout
		Resolver *resolve.Resolver
		Fetcher  Fetcher
		Runner   runner.Runner
		// Settle configures readiness waits; What is filled per wait.
		Settle settle.Options
		Logger *log.Logger
		// Stdout and Stderr receive the live output of external commands.
		Stdout io.Writer
		Stderr io.Writer
	}
)

func (d Deps) logger() *log.Logger {
	if d.Logger == nil {
		return log.New(io.Discard)
	}
	return d.Logger
}

// stepRunner runs steps for a single runtime, logging each one and wrapping
// failures in *StepError.
type stepRunner struct {
	runtime manifest.Name
	logger  *log.Logger
}

func (s stepRunner) do(step Step, fn func() error) error {
	s.logger.Debug("step started", "runtime", s.runtime, "step", step)
	if err := fn(); err != nil {
		return &StepError{Runtime: s.runtime, Step: step, Err: err}
	}
	return nil
}

func (d Deps) run(ctx context.Context, dir, command string) error {
	return d.Runner.Run(ctx, runner.Request{
		Command: command,
		Dir:     dir,
		Env:     runner.UTF8Env(),
		Stdout:  d.Stdout,
		Stderr:  d.Stderr,
	}).AsError()
}

func (d Deps) waitFor(ctx context.Context, path string) error {
	opts := d.Settle
	opts.What = path
	return settle.Until(ctx, settle.FileExists(path), opts)
}

func mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &FilesystemError{Op: "create directory", Path: path, Err: err}
	}
	return nil
}

// remove deletes a transient download. A file that is already gone is fine.
func remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &FilesystemError{Op: "remove", Path: path, Err: err}
	}
	return nil
}
