// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/internal/resolve"
	"github.com/invowk/rtprov/internal/runner"
	"github.com/invowk/rtprov/pkg/platform"
)

// silentInstallArgs are passed to the Windows executable installer. The
// interpreter is installed for the current user only, without touching PATH
// or the py launcher.
const silentInstallArgs = "/quiet InstallAllUsers=0 PrependPath=0 Include_launcher=0 Include_test=0 Include_pip=1"

// Interpreter installs the Python interpreter, its isolated environment and
// the pinned packages.
type Interpreter struct {
	deps     Deps
	versions manifest.Manifest
	steps    stepRunner
}

// NewInterpreter creates the interpreter installer for the given versions.
func NewInterpreter(deps Deps, versions manifest.Manifest) *Interpreter {
	return &Interpreter{
		deps:     deps,
		versions: versions.Normalize(),
		steps:    stepRunner{runtime: manifest.Python, logger: deps.logger()},
	}
}

// Runtime implements Installer.
func (i *Interpreter) Runtime() manifest.Name { return manifest.Python }

// Install runs the interpreter steps in order and stops at the first failure.
func (i *Interpreter) Install(ctx context.Context) error {
	d := i.deps
	root := d.Layout.PythonRoot()

	if err := i.steps.do(StepDirectoryCreate, func() error { return mkdir(root) }); err != nil {
		return err
	}

	python := runner.Quote(d.Profile, d.Profile.SystemPython)
	if d.Profile.DownloadsPython {
		if err := i.installInterpreter(ctx); err != nil {
			return err
		}
		python = runner.Quote(d.Profile, d.Layout.Interpreter(d.Profile))
	}

	venv := d.Layout.VenvDir()
	venvPython := runner.Quote(d.Profile, d.Profile.VenvPython(venv))

	if err := i.steps.do(StepCreateEnvironment, func() error {
		return d.run(ctx, root, fmt.Sprintf("%s -m venv %s", python, runner.Quote(d.Profile, venv)))
	}); err != nil {
		return err
	}
	if err := i.steps.do(StepSettleEnvironment, func() error {
		return d.waitFor(ctx, d.Profile.VenvPython(venv))
	}); err != nil {
		return err
	}
	if err := i.steps.do(StepUpgradePackageManager, func() error {
		return d.run(ctx, root, venvPython+" -m pip install --upgrade pip")
	}); err != nil {
		return err
	}
	for _, pkg := range i.packages() {
		if err := i.steps.do(StepInstallPackage, func() error {
			d.logger().Info("installing package", "package", pkg)
			return d.run(ctx, root, venvPython+" -m pip install "+runner.Quote(d.Profile, pkg))
		}); err != nil {
			return err
		}
	}
	return i.steps.do(StepWriteActivation, i.writeActivation)
}

// installInterpreter downloads and installs the interpreter into the python
// root, then waits for python.exe to appear.
func (i *Interpreter) installInterpreter(ctx context.Context) error {
	d := i.deps
	root := d.Layout.PythonRoot()

	var spec resolve.DownloadSpec
	if err := i.steps.do(StepResolve, func() (err error) {
		spec, err = d.Resolver.Resolve(manifest.Python, d.Profile.ID)
		if err == nil && spec.Format != "" {
			// Only the embeddable zip resolves to an archive.
			err = fmt.Errorf("%w: %s", ErrNoVenvModule, spec.FileName)
		}
		return err
	}); err != nil {
		return err
	}

	artifact := filepath.Join(root, spec.FileName)
	if err := i.steps.do(StepFetchInstaller, func() error {
		d.logger().Info("downloading interpreter", "version", spec.Version, "file", spec.FileName)
		return d.Fetcher.Fetch(ctx, spec.URL, artifact)
	}); err != nil {
		return err
	}

	if err := i.steps.do(StepSilentInstall, func() error {
		return d.run(ctx, root, fmt.Sprintf("%s %s TargetDir=%s",
			runner.Quote(d.Profile, artifact), silentInstallArgs, runner.Quote(d.Profile, root)))
	}); err != nil {
		return err
	}
	if err := i.steps.do(StepDeleteInstaller, func() error { return remove(artifact) }); err != nil {
		return err
	}
	return i.steps.do(StepSettleInterpreter, func() error {
		return d.waitFor(ctx, d.Layout.Interpreter(d.Profile))
	})
}

// packages returns the pinned package requirements.
func (i *Interpreter) packages() []string {
	return []string{
		"robotframework==" + i.versions.RobotFramework,
		"notebook==" + i.versions.Jupyter,
	}
}

func (i *Interpreter) writeActivation() error {
	d := i.deps
	script := d.Layout.ActivationScript(d.Profile)

	data := platform.ActivationData{
		Script:  script,
		VenvDir: d.Layout.VenvDir(),
	}
	if spec, err := d.Resolver.Resolve(manifest.NodeJS, d.Profile.ID); err == nil {
		data.NodeBinDir = filepath.Join(d.Layout.NodeHome(spec), d.Profile.NodeBinDir)
	} else if !errors.Is(err, resolve.ErrNotApplicable) {
		return err
	}

	content, err := RenderActivation(d.Profile, data)
	if err != nil {
		return err
	}

	perm := os.FileMode(0o644)
	if d.Profile.ActivationExecutable {
		perm = 0o755
	}
	if err := os.WriteFile(script, content, perm); err != nil {
		return &FilesystemError{Op: "write", Path: script, Err: err}
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(script, perm); err != nil {
		return &FilesystemError{Op: "chmod", Path: script, Err: err}
	}
	return nil
}

// RenderActivation renders the profile's activation script template.
func RenderActivation(p platform.Profile, data platform.ActivationData) ([]byte, error) {
	tmpl, err := template.New(p.ActivationScript).Parse(p.ActivationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing activation template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering activation script: %w", err)
	}
	if p.ID.IsWindows() {
		return bytes.ReplaceAll(buf.Bytes(), []byte("\n"), []byte("\r\n")), nil
	}
	return buf.Bytes(), nil
}
