// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/pkg/platform"
)

const (
	// DefaultPythonMirror is the upstream base URL for Python installers.
	DefaultPythonMirror = "https://www.python.org/ftp/python"
	// DefaultNodeMirror is the upstream base URL for Node.js distributions.
	DefaultNodeMirror = "https://nodejs.org/dist"

	// InstallerExe is the GUI-less Windows executable installer.
	InstallerExe InstallerStyle = "exe"
	// InstallerEmbed is the self-extracting embedded zip distribution.
	InstallerEmbed InstallerStyle = "embed"

	// ArchX64 selects x86-64 Node.js builds.
	ArchX64 Arch = "x64"
	// ArchARM64 selects arm64 Node.js builds.
	ArchARM64 Arch = "arm64"
)

var (
	// ErrNotApplicable means the runtime is not downloaded on this platform;
	// the system-provided binary is used instead. It is not a failure.
	ErrNotApplicable = errors.New("no download for this runtime on this platform")

	// ErrUnknownRuntime is returned for runtimes that are never downloaded as
	// standalone artifacts (pip packages) or are not known at all.
	ErrUnknownRuntime = errors.New("runtime has no downloadable artifact")

	// ErrInvalidInstallerStyle is returned by InstallerStyle.Validate.
	ErrInvalidInstallerStyle = errors.New("invalid interpreter installer style")
)

type (
	// InstallerStyle selects the Windows interpreter distribution.
	InstallerStyle string

	// Arch is the CPU architecture token used in Node.js file names.
	Arch string

	// Options configures URL construction.
	Options struct {
		// PythonMirror overrides DefaultPythonMirror.
		PythonMirror string
		// NodeMirror overrides DefaultNodeMirror.
		NodeMirror string
		// InstallerStyle selects the Windows interpreter distribution.
		// The zero value means InstallerExe.
		InstallerStyle InstallerStyle
		// Arch selects the Node.js build. The zero value means ArchX64.
		Arch Arch
	}

	// DownloadSpec is a resolved artifact download.
	DownloadSpec struct {
		Runtime  manifest.Name
		Version  string
		Platform platform.ID
		// URL is the absolute download location.
		URL string
		// FileName is the local file name, derived from the URL path.
		FileName string
		// Format is the archive format, or "" for a non-archive artifact such
		// as an executable installer.
		Format platform.ArchiveFormat
	}

	// Resolver resolves DownloadSpecs for a fixed manifest.
	Resolver struct {
		manifest manifest.Manifest
		opts     Options
	}
)

// New creates a Resolver for m.
func New(m manifest.Manifest, opts Options) *Resolver {
	if opts.PythonMirror == "" {
		opts.PythonMirror = DefaultPythonMirror
	}
	if opts.NodeMirror == "" {
		opts.NodeMirror = DefaultNodeMirror
	}
	if opts.InstallerStyle == "" {
		opts.InstallerStyle = InstallerExe
	}
	if opts.Arch == "" {
		opts.Arch = ArchX64
	}
	opts.PythonMirror = strings.TrimRight(opts.PythonMirror, "/")
	opts.NodeMirror = strings.TrimRight(opts.NodeMirror, "/")
	return &Resolver{manifest: m.Normalize(), opts: opts}
}

// Options returns the effective options after defaults were applied.
func (r *Resolver) Options() Options { return r.opts }

// Resolve returns the download for runtime on p. It returns ErrNotApplicable
// when the runtime is system-provided on p.
func (r *Resolver) Resolve(runtime manifest.Name, p platform.ID) (DownloadSpec, error) {
	profile, err := platform.ProfileFor(p)
	if err != nil {
		return DownloadSpec{}, err
	}

	version := r.manifest.Version(runtime)
	var raw string
	var format platform.ArchiveFormat

	switch runtime {
	case manifest.Python:
		if !profile.DownloadsPython {
			return DownloadSpec{}, fmt.Errorf("%s on %s: %w", runtime, p, ErrNotApplicable)
		}
		switch r.opts.InstallerStyle {
		case InstallerEmbed:
			raw = fmt.Sprintf("%s/%s/python-%s-embed-amd64.zip", r.opts.PythonMirror, version, version)
			format = platform.ArchiveZip
		default:
			raw = fmt.Sprintf("%s/%s/python-%s-amd64.exe", r.opts.PythonMirror, version, version)
		}
	case manifest.NodeJS:
		format = profile.NodeArchive
		raw = fmt.Sprintf("%s/v%s/node-v%s-%s-%s.%s",
			r.opts.NodeMirror, version, version, profile.NodeOS, r.opts.Arch, format.Ext())
	default:
		return DownloadSpec{}, fmt.Errorf("%s: %w", runtime, ErrUnknownRuntime)
	}

	name, err := FileNameFromURL(raw)
	if err != nil {
		return DownloadSpec{}, err
	}

	return DownloadSpec{
		Runtime:  runtime,
		Version:  version,
		Platform: p,
		URL:      raw,
		FileName: name,
		Format:   format,
	}, nil
}

// FileNameFromURL returns the last path segment of rawURL, ignoring query and
// fragment.
func FileNameFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing download URL: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("download URL %q has no file name", rawURL)
	}
	return name, nil
}

// ArchiveRoot returns the top-level directory an archive extracts to, which
// for Node.js distributions is the file name without its archive extension.
func ArchiveRoot(spec DownloadSpec) string {
	if spec.Format == "" {
		return spec.FileName
	}
	return strings.TrimSuffix(spec.FileName, "."+spec.Format.Ext())
}

// Validate returns an error for an unknown installer style. The zero value is
// valid and means InstallerExe.
func (s InstallerStyle) Validate() error {
	switch s {
	case "", InstallerExe, InstallerEmbed:
		return nil
	}
	return fmt.Errorf("%w: %q (expected %q or %q)", ErrInvalidInstallerStyle, string(s), InstallerExe, InstallerEmbed)
}

// ArchFromGOARCH maps runtime.GOARCH to a Node.js architecture token.
func ArchFromGOARCH(goarch string) Arch {
	if goarch == "arm64" {
		return ArchARM64
	}
	return ArchX64
}
