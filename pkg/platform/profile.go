// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"fmt"
	"path/filepath"
)

const (
	// ArchiveZip is a zip archive (Windows Node.js distribution, embedded Python).
	ArchiveZip ArchiveFormat = "zip"
	// ArchiveTarGz is a gzip-compressed tarball (macOS Node.js distribution).
	ArchiveTarGz ArchiveFormat = "tar.gz"
	// ArchiveTarXz is an xz-compressed tarball (Linux Node.js distribution).
	ArchiveTarXz ArchiveFormat = "tar.xz"

	// InvokeBatchScript runs commands through a temporary batch file under cmd.exe.
	InvokeBatchScript InvocationStyle = "batch"
	// InvokeShell hands commands directly to a POSIX shell.
	InvokeShell InvocationStyle = "shell"
)

type (
	// ArchiveFormat names the container/compression scheme of a downloaded archive.
	ArchiveFormat string

	// InvocationStyle names how the command runner hands a command to the OS.
	InvocationStyle string

	// Profile is the per-platform behavior table entry.
	Profile struct {
		// ID is the platform this profile describes.
		ID ID
		// NodeOS is the platform token in Node.js distribution file names.
		NodeOS string
		// NodeArchive is the archive format of the Node.js distribution.
		NodeArchive ArchiveFormat
		// DownloadsPython is true when the interpreter must be fetched and
		// installed; false means the system interpreter is used.
		DownloadsPython bool
		// SystemPython is the interpreter looked up on PATH when DownloadsPython
		// is false.
		SystemPython string
		// ExeSuffix is appended to executable names.
		ExeSuffix string
		// VenvBinDir is the directory inside a virtual environment that holds
		// its interpreter and entry points.
		VenvBinDir string
		// NodeBinDir is the directory inside the extracted Node.js root that
		// holds the node binary ("" means the root itself).
		NodeBinDir string
		// Invocation selects how commands are executed.
		Invocation InvocationStyle
		// ActivationScript is the file name of the generated activation script.
		ActivationScript string
		// ActivationTemplate is a text/template rendered into the activation
		// script. It receives the ActivationData value.
		ActivationTemplate string
		// ActivationExecutable marks the script executable after writing.
		ActivationExecutable bool
	}

	// ActivationData is the template input for an activation script.
	ActivationData struct {
		// Script is the absolute path of the activation script itself.
		Script string
		// VenvDir is the absolute path of the isolated environment.
		VenvDir string
		// NodeBinDir is the absolute path of the directory holding node, or "".
		NodeBinDir string
	}
)

const posixActivation = `#!/bin/sh
# Source this file to put the bundled runtimes first on PATH for this shell session:
#   . "{{ .Script }}"
. "{{ .VenvDir }}/bin/activate"
{{- if .NodeBinDir }}
PATH="{{ .NodeBinDir }}:$PATH"
export PATH
{{- end }}
`

const windowsActivation = `@echo off
rem Run this file to put the bundled runtimes first on PATH for this cmd.exe session.
call "{{ .VenvDir }}\Scripts\activate.bat"
{{- if .NodeBinDir }}
set "PATH={{ .NodeBinDir }};%PATH%"
{{- end }}
`

//nolint:gochecknoglobals // Read-only lookup table keyed by platform ID.
var profiles = map[ID]Profile{
	Windows: {
		ID:                 Windows,
		NodeOS:             "win",
		NodeArchive:        ArchiveZip,
		DownloadsPython:    true,
		ExeSuffix:          ".exe",
		VenvBinDir:         "Scripts",
		NodeBinDir:         "",
		Invocation:         InvokeBatchScript,
		ActivationScript:   "activate.bat",
		ActivationTemplate: windowsActivation,
	},
	MacOS: {
		ID:                   MacOS,
		NodeOS:               "darwin",
		NodeArchive:          ArchiveTarGz,
		SystemPython:         "python3",
		VenvBinDir:           "bin",
		NodeBinDir:           "bin",
		Invocation:           InvokeShell,
		ActivationScript:     "activate.sh",
		ActivationTemplate:   posixActivation,
		ActivationExecutable: true,
	},
	Linux: {
		ID:                   Linux,
		NodeOS:               "linux",
		NodeArchive:          ArchiveTarXz,
		SystemPython:         "python3",
		VenvBinDir:           "bin",
		NodeBinDir:           "bin",
		Invocation:           InvokeShell,
		ActivationScript:     "activate.sh",
		ActivationTemplate:   posixActivation,
		ActivationExecutable: true,
	},
}

// ProfileFor returns the behavior table entry for id.
func ProfileFor(id ID) (Profile, error) {
	p, ok := profiles[id]
	if !ok {
		return Profile{}, &UnsupportedPlatformError{Value: string(id)}
	}
	return p, nil
}

// MustProfile is like ProfileFor but panics for an unsupported platform. It is
// meant for IDs that were already validated.
func MustProfile(id ID) Profile {
	p, err := ProfileFor(id)
	if err != nil {
		panic(err)
	}
	return p
}

// Exe appends the platform executable suffix to name.
func (p Profile) Exe(name string) string {
	return name + p.ExeSuffix
}

// VenvPython returns the path of the interpreter inside the virtual
// environment rooted at venvDir.
func (p Profile) VenvPython(venvDir string) string {
	return filepath.Join(venvDir, p.VenvBinDir, p.Exe("python"))
}

// NodeBinary returns the path of the node executable inside an extracted
// Node.js distribution rooted at nodeRoot.
func (p Profile) NodeBinary(nodeRoot string) string {
	return filepath.Join(nodeRoot, p.NodeBinDir, p.Exe("node"))
}

// Ext returns the file extension (without the leading dot) of the format.
func (f ArchiveFormat) Ext() string { return string(f) }

// Validate returns an error for an unknown archive format.
func (f ArchiveFormat) Validate() error {
	switch f {
	case ArchiveZip, ArchiveTarGz, ArchiveTarXz:
		return nil
	}
	return fmt.Errorf("unknown archive format %q", string(f))
}
