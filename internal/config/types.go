// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/internal/resolve"
	"github.com/invowk/rtprov/internal/runner"
	"github.com/invowk/rtprov/internal/settle"
	"github.com/invowk/rtprov/pkg/types"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultRuntimesDir is where runtimes are provisioned unless configured.
	DefaultRuntimesDir types.FilesystemPath = "./resources/runtimes"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidMirror is returned for a mirror that is not an absolute http(s) URL.
	ErrInvalidMirror = errors.New("invalid mirror URL")
	// ErrInvalidDuration is returned for non-positive settle durations.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// RuntimesDir receives the python/ and nodejs/ install targets.
		RuntimesDir types.FilesystemPath `json:"runtimes_dir" mapstructure:"runtimes_dir"`
		// Versions is the runtime manifest.
		Versions manifest.Manifest `json:"versions" mapstructure:"versions"`
		// Python configures the interpreter installer.
		Python PythonConfig `json:"python" mapstructure:"python"`
		// Mirrors overrides download base URLs.
		Mirrors MirrorsConfig `json:"mirrors" mapstructure:"mirrors"`
		// Runner selects native or virtual command execution.
		Runner runner.Mode `json:"runner" mapstructure:"runner"`
		// Settle bounds readiness waits.
		Settle SettleConfig `json:"settle" mapstructure:"settle"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// PythonConfig configures the interpreter installer.
	PythonConfig struct {
		InstallerStyle resolve.InstallerStyle `json:"installer_style" mapstructure:"installer_style"`
	}

	// MirrorsConfig holds download base URLs.
	MirrorsConfig struct {
		Python string `json:"python" mapstructure:"python"`
		NodeJS string `json:"nodejs" mapstructure:"nodejs"`
	}

	// SettleConfig bounds the polls that wait for installer side effects.
	SettleConfig struct {
		Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
		Interval time.Duration `json:"interval" mapstructure:"interval"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging and the full error chain
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		RuntimesDir: DefaultRuntimesDir,
		Versions:    manifest.Default(),
		Python:      PythonConfig{InstallerStyle: resolve.InstallerExe},
		Mirrors: MirrorsConfig{
			Python: resolve.DefaultPythonMirror,
			NodeJS: resolve.DefaultNodeMirror,
		},
		Runner: runner.ModeNative,
		Settle: SettleConfig{
			Timeout:  settle.DefaultTimeout,
			Interval: settle.DefaultInterval,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
	}
}

// Validate checks every field and returns an *InvalidConfigError listing all
// problems, or nil.
func (c Config) Validate() error {
	var errs []error
	if err := c.RuntimesDir.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("runtimes_dir: %w", err))
	}
	if err := c.Versions.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("versions: %w", err))
	}
	if err := c.Python.InstallerStyle.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("python.installer_style: %w", err))
	}
	if err := validateMirror(c.Mirrors.Python); err != nil {
		errs = append(errs, fmt.Errorf("mirrors.python: %w", err))
	}
	if err := validateMirror(c.Mirrors.NodeJS); err != nil {
		errs = append(errs, fmt.Errorf("mirrors.nodejs: %w", err))
	}
	if err := c.Runner.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("runner: %w", err))
	}
	if c.Settle.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("settle.timeout: %w: %s", ErrInvalidDuration, c.Settle.Timeout))
	}
	if c.Settle.Interval <= 0 {
		errs = append(errs, fmt.Errorf("settle.interval: %w: %s", ErrInvalidDuration, c.Settle.Interval))
	}
	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ui.color_scheme: %w", err))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// ResolverOptions returns the download resolver options for this
// configuration and CPU architecture (runtime.GOARCH).
func (c Config) ResolverOptions(goarch string) resolve.Options {
	return resolve.Options{
		PythonMirror:   c.Mirrors.Python,
		NodeMirror:     c.Mirrors.NodeJS,
		InstallerStyle: c.Python.InstallerStyle,
		Arch:           resolve.ArchFromGOARCH(goarch),
	}
}

// SettleOptions returns the readiness-wait options for this configuration.
func (c Config) SettleOptions() settle.Options {
	return settle.Options{Timeout: c.Settle.Timeout, Interval: c.Settle.Interval}
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	msg := fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msg += "\n  " + fe.Error()
	}
	return msg
}

// Unwrap returns ErrInvalidConfig and the field errors so callers can match
// both the class and a specific cause.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// Validate returns an error if the ColorScheme is not one of the defined schemes.
func (cs ColorScheme) Validate() error {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidColorSchemeError{Value: cs}
	}
}

func validateMirror(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMirror, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q (expected an absolute http or https URL)", ErrInvalidMirror, raw)
	}
	return nil
}
