// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"fmt"
	"path/filepath"

	"github.com/invowk/rtprov/internal/resolve"
	"github.com/invowk/rtprov/pkg/platform"
)

const (
	pythonDir = "python"
	venvDir   = "venv"
	nodeDir   = "nodejs"
)

// Layout is the install-directory tree under a runtimes root:
//
//	<root>/python/            interpreter root (Windows) and activation script
//	<root>/python/venv/       isolated environment
//	<root>/nodejs/<archive>/  extracted Node.js distribution
type Layout struct {
	Root string
}

// NewLayout returns the layout rooted at the absolute form of root.
func NewLayout(root string) (Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolving runtimes directory %q: %w", root, err)
	}
	return Layout{Root: abs}, nil
}

// PythonRoot is the interpreter install target.
func (l Layout) PythonRoot() string { return filepath.Join(l.Root, pythonDir) }

// VenvDir is the isolated environment directory.
func (l Layout) VenvDir() string { return filepath.Join(l.PythonRoot(), venvDir) }

// NodeRoot is the Node.js install target; archives are extracted into it.
func (l Layout) NodeRoot() string { return filepath.Join(l.Root, nodeDir) }

// NodeHome is the directory a Node.js archive described by spec extracts to.
func (l Layout) NodeHome(spec resolve.DownloadSpec) string {
	return filepath.Join(l.NodeRoot(), resolve.ArchiveRoot(spec))
}

// ActivationScript is the path of the generated activation script.
func (l Layout) ActivationScript(p platform.Profile) string {
	return filepath.Join(l.PythonRoot(), p.ActivationScript)
}

// Interpreter is the path of the installed Windows interpreter.
func (l Layout) Interpreter(p platform.Profile) string {
	return filepath.Join(l.PythonRoot(), p.Exe("python"))
}
