// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"errors"
	"fmt"

	"github.com/invowk/rtprov/internal/manifest"
)

var (
	// ErrFilesystem is wrapped by FilesystemError.
	ErrFilesystem = errors.New("filesystem operation failed")
	// ErrNoVenvModule indicates the selected interpreter distribution cannot
	// create the isolated environment. python.org's embeddable zip ships
	// without venv and ensurepip.
	ErrNoVenvModule = errors.New("interpreter distribution has no venv module")
)

type (
	// StepError identifies the runtime and step at which an installer stopped.
	StepError struct {
		Runtime manifest.Name
		Step    Step
		Err     error
	}

	// FilesystemError reports a failed local filesystem operation.
	FilesystemError struct {
		// Op is a short verb such as "create directory" or "remove".
		Op   string
		Path string
		Err  error
	}
)

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Runtime, e.Step, e.Err)
}

// Unwrap returns the step's underlying error.
func (e *StepError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns ErrFilesystem and the OS error.
func (e *FilesystemError) Unwrap() []error { return []error{ErrFilesystem, e.Err} }
