// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	// Python is the interpreter runtime.
	Python Name = "python"
	// NodeJS is the JavaScript runtime.
	NodeJS Name = "nodejs"
	// RobotFramework is the test-automation framework, installed with pip.
	RobotFramework Name = "robotframework"
	// Jupyter is the notebook server, installed with pip as "notebook".
	Jupyter Name = "jupyter"
)

// ErrInvalidManifest is the sentinel error wrapped by InvalidManifestError.
var ErrInvalidManifest = errors.New("invalid runtime manifest")

type (
	// Name identifies a runtime in the manifest.
	Name string

	// Manifest maps each runtime to the exact version to provision.
	Manifest struct {
		Python         string `json:"python" toml:"python" yaml:"python" mapstructure:"python"`
		NodeJS         string `json:"nodejs" toml:"nodejs" yaml:"nodejs" mapstructure:"nodejs"`
		RobotFramework string `json:"robotframework" toml:"robotframework" yaml:"robotframework" mapstructure:"robotframework"`
		Jupyter        string `json:"jupyter" toml:"jupyter" yaml:"jupyter" mapstructure:"jupyter"`
	}

	// FieldError describes a single invalid manifest entry.
	FieldError struct {
		Runtime Name
		Value   string
		Reason  string
	}

	// InvalidManifestError collects every invalid entry of a manifest.
	InvalidManifestError struct {
		Fields []FieldError
	}
)

// Default returns the manifest the application ships with.
func Default() Manifest {
	return Manifest{
		Python:         "3.11.0",
		NodeJS:         "18.16.0",
		RobotFramework: "6.1.1",
		Jupyter:        "7.0.0",
	}
}

// Names returns the runtime names in manifest order.
func Names() []Name {
	return []Name{Python, NodeJS, RobotFramework, Jupyter}
}

// Version returns the pinned version for name, or "" for an unknown name.
func (m Manifest) Version(name Name) string {
	switch name {
	case Python:
		return m.Python
	case NodeJS:
		return m.NodeJS
	case RobotFramework:
		return m.RobotFramework
	case Jupyter:
		return m.Jupyter
	}
	return ""
}

// Normalize trims whitespace and a leading "v" from every entry.
func (m Manifest) Normalize() Manifest {
	clean := func(s string) string {
		return strings.TrimPrefix(strings.TrimSpace(s), "v")
	}
	return Manifest{
		Python:         clean(m.Python),
		NodeJS:         clean(m.NodeJS),
		RobotFramework: clean(m.RobotFramework),
		Jupyter:        clean(m.Jupyter),
	}
}

// Merge returns m with every empty entry filled from fallback.
func (m Manifest) Merge(fallback Manifest) Manifest {
	pick := func(a, b string) string {
		if strings.TrimSpace(a) != "" {
			return a
		}
		return b
	}
	return Manifest{
		Python:         pick(m.Python, fallback.Python),
		NodeJS:         pick(m.NodeJS, fallback.NodeJS),
		RobotFramework: pick(m.RobotFramework, fallback.RobotFramework),
		Jupyter:        pick(m.Jupyter, fallback.Jupyter),
	}
}

// Validate checks that all four versions are present and are exact semantic
// versions (MAJOR.MINOR.PATCH, optional leading "v"). Ranges, wildcards and
// "latest" are rejected.
func (m Manifest) Validate() error {
	var fields []FieldError
	for _, name := range Names() {
		if reason := checkVersion(m.Version(name)); reason != "" {
			fields = append(fields, FieldError{Runtime: name, Value: m.Version(name), Reason: reason})
		}
	}
	if len(fields) > 0 {
		return &InvalidManifestError{Fields: fields}
	}
	return nil
}

// String renders the manifest for log output.
func (m Manifest) String() string {
	return fmt.Sprintf("python=%s nodejs=%s robotframework=%s jupyter=%s",
		m.Python, m.NodeJS, m.RobotFramework, m.Jupyter)
}

// Error implements the error interface.
func (e *InvalidManifestError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s=%q: %s", f.Runtime, f.Value, f.Reason))
	}
	return "invalid runtime manifest: " + strings.Join(parts, "; ")
}

// Unwrap returns ErrInvalidManifest for errors.Is.
func (e *InvalidManifestError) Unwrap() error { return ErrInvalidManifest }

func checkVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "version is required"
	}
	norm := v
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if !semver.IsValid(norm) {
		return "not a semantic version"
	}
	// semver accepts "v1" and "v1.2" as shorthands; pins must be complete.
	if semver.Canonical(norm) != strings.SplitN(norm, "+", 2)[0] {
		return "version must be an exact MAJOR.MINOR.PATCH pin"
	}
	return ""
}
