// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPath is returned for blank paths.
	ErrEmptyPath = errors.New("path is empty")
	// ErrInvalidPath is returned for paths no filesystem accepts.
	ErrInvalidPath = errors.New("invalid path")
)

// FilesystemPath is a configured directory or file location, absolute or
// relative to the working directory.
type FilesystemPath string

func (p FilesystemPath) String() string { return string(p) }

// Validate rejects blank paths and paths containing NUL bytes.
func (p FilesystemPath) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(string(p), 0) {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidPath, string(p))
	}
	return nil
}
