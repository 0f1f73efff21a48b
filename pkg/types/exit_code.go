// SPDX-License-Identifier: MPL-2.0

package types

import "strconv"

// ExitCode is a process exit status. A provisioning run ends with ExitSuccess
// or ExitFailure; installer commands may report any value.
type ExitCode int

const (
	ExitSuccess ExitCode = 0
	ExitFailure ExitCode = 1
)

// IsSuccess reports whether c is ExitSuccess.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// Process returns c as an os.Exit status. Values an operating system cannot
// report (negative or above 255) become ExitFailure.
func (c ExitCode) Process() int {
	if c < 0 || c > 255 {
		return int(ExitFailure)
	}
	return int(c)
}
