// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/invowk/rtprov/pkg/types"
)

// ExitError carries the exit status of a failed provisioning run out of a
// RunE handler. Err is what renderError prints; nil means nothing is left to
// report.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + e.Code.String()
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// exitCodeOf maps a command error to the process status.
func exitCodeOf(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitFailure
}
