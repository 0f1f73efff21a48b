// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/invowk/rtprov/internal/installer"
	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/internal/runner"
	"github.com/invowk/rtprov/pkg/platform"
)

// ErrNotProvisioned is returned by QueryVersions when a runtime binary is
// missing from the runtimes directory.
var ErrNotProvisioned = errors.New("runtime is not provisioned")

type (
	// Versions are the self-reported versions of a provisioned tree.
	Versions struct {
		Python string
		NodeJS string
	}

	// NotProvisionedError names the missing runtime binary.
	NotProvisionedError struct {
		Runtime manifest.Name
		Path    string
	}
)

// Error implements the error interface.
func (e *NotProvisionedError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Runtime, e.Path)
}

// Unwrap returns ErrNotProvisioned.
func (e *NotProvisionedError) Unwrap() error { return ErrNotProvisioned }

// QueryVersions runs "--version" on the venv interpreter and on the node
// binary extracted into nodeHome.
func QueryVersions(ctx context.Context, r runner.Runner, layout installer.Layout, profile platform.Profile, nodeHome string) (Versions, error) {
	python, err := queryVersion(ctx, r, profile, manifest.Python, profile.VenvPython(layout.VenvDir()))
	if err != nil {
		return Versions{}, err
	}
	node, err := queryVersion(ctx, r, profile, manifest.NodeJS, profile.NodeBinary(nodeHome))
	if err != nil {
		return Versions{}, err
	}
	return Versions{Python: python, NodeJS: node}, nil
}

// Versions queries the tree this orchestrator provisions.
func (o *Orchestrator) Versions(ctx context.Context) (Versions, error) {
	spec, err := o.deps.Resolver.Resolve(manifest.NodeJS, o.deps.Profile.ID)
	if err != nil {
		return Versions{}, err
	}
	return QueryVersions(ctx, o.deps.Runner, o.deps.Layout, o.deps.Profile, o.deps.Layout.NodeHome(spec))
}

func queryVersion(ctx context.Context, r runner.Runner, profile platform.Profile, name manifest.Name, binary string) (string, error) {
	if _, err := os.Stat(binary); err != nil {
		return "", &NotProvisionedError{Runtime: name, Path: binary}
	}
	out := r.Run(ctx, runner.Request{Command: runner.Quote(profile, binary) + " --version"})
	if err := out.AsError(); err != nil {
		return "", fmt.Errorf("%s --version: %w", name, err)
	}
	// Interpreters older than 3.4 report on stderr.
	version := strings.TrimSpace(out.Stdout)
	if version == "" {
		version = strings.TrimSpace(out.Stderr)
	}
	return version, nil
}
