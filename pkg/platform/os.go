// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	goruntime "runtime"
	"strings"
)

// OS name constants for runtime.GOOS comparisons.
const (
	GOOSWindows = "windows"
	GOOSDarwin  = "darwin"
	GOOSLinux   = "linux"
)

const (
	// Windows is the Windows desktop platform.
	Windows ID = "windows"
	// MacOS is the macOS platform.
	MacOS ID = "macos"
	// Linux is the Linux platform.
	Linux ID = "linux"
)

// ErrUnsupportedPlatform is the sentinel error wrapped by UnsupportedPlatformError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

type (
	// ID identifies one of the supported host platforms. It is computed once at
	// process start and passed down; it is never mutated.
	ID string

	// UnsupportedPlatformError is returned when a GOOS or platform name has no
	// provisioning profile.
	UnsupportedPlatformError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q (supported: windows, macos, linux)", e.Value)
}

// Unwrap returns ErrUnsupportedPlatform for errors.Is.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// All returns every supported platform in a stable order.
func All() []ID {
	return []ID{Windows, MacOS, Linux}
}

// Detect returns the platform of the running process.
func Detect() (ID, error) {
	return FromGOOS(goruntime.GOOS)
}

// FromGOOS maps a runtime.GOOS value to a platform ID.
func FromGOOS(goos string) (ID, error) {
	switch goos {
	case GOOSWindows:
		return Windows, nil
	case GOOSDarwin:
		return MacOS, nil
	case GOOSLinux:
		return Linux, nil
	}
	return "", &UnsupportedPlatformError{Value: goos}
}

// Parse converts a user-supplied platform name into an ID. Both the platform
// names and GOOS spellings are accepted ("macos" and "darwin").
func Parse(s string) (ID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch ID(name) {
	case Windows, MacOS, Linux:
		return ID(name), nil
	}
	if id, err := FromGOOS(name); err == nil {
		return id, nil
	}
	return "", &UnsupportedPlatformError{Value: s}
}

// String returns the platform name.
func (id ID) String() string { return string(id) }

// IsWindows reports whether the platform is Windows.
func (id ID) IsWindows() bool { return id == Windows }

// IsPOSIX reports whether the platform hands commands to a POSIX shell.
func (id ID) IsPOSIX() bool { return id == MacOS || id == Linux }

// Validate returns an error if id is not a supported platform.
func (id ID) Validate() error {
	if _, ok := profiles[id]; !ok {
		return &UnsupportedPlatformError{Value: string(id)}
	}
	return nil
}
