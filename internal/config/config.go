// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/rtprov/internal/issue"
	"github.com/invowk/rtprov/internal/manifest"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "rtprov"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFile is the project-local config file looked up in the
	// working directory.
	LocalConfigFile = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides (RTPROV_RUNTIMES_DIR, ...).
	EnvPrefix = "RTPROV"

	// maxConfigFileSize guards against accidentally pointing --config at a
	// large unrelated file.
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the user config directory lookup when set.
	ConfigDirPath string
	// WorkDir is searched for LocalConfigFile; "" means the current directory.
	WorkDir string
}

// ConfigDir returns the rtprov configuration directory under the platform's
// user configuration directory: %APPDATA% on Windows,
// ~/Library/Application Support on macOS and $XDG_CONFIG_HOME (default
// ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

// ConfigFilePath returns the path of the user config file.
func ConfigFilePath(configDirPath string) (string, error) {
	dir, err := configDirWithOverride(configDirPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load resolves the configuration file, validates it against the schema,
// applies RTPROV_ environment overrides and returns the result together with
// the path of the file that was used ("" when running on defaults).
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	resolvedPath, err := findConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'rtprov config init' to write a commented default file").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Versions = cfg.Versions.Normalize()

	if err := cfg.Validate(); err != nil {
		id := issue.ConfigLoadFailedId
		if errors.Is(err, manifest.ErrInvalidManifest) {
			id = issue.ManifestInvalidId
		}
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check RTPROV_* environment variables as well as the config file").
			WithIssue(id).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// newViper returns a Viper instance holding the defaults and bound to the
// RTPROV_ environment.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("runtimes_dir", string(defaults.RuntimesDir))
	v.SetDefault("versions.python", defaults.Versions.Python)
	v.SetDefault("versions.nodejs", defaults.Versions.NodeJS)
	v.SetDefault("versions.robotframework", defaults.Versions.RobotFramework)
	v.SetDefault("versions.jupyter", defaults.Versions.Jupyter)
	v.SetDefault("python.installer_style", string(defaults.Python.InstallerStyle))
	v.SetDefault("mirrors.python", defaults.Mirrors.Python)
	v.SetDefault("mirrors.nodejs", defaults.Mirrors.NodeJS)
	v.SetDefault("runner", string(defaults.Runner))
	v.SetDefault("settle.timeout", defaults.Settle.Timeout)
	v.SetDefault("settle.interval", defaults.Settle.Interval)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// findConfigFile applies the search order. An explicit path must exist; the
// implicit locations are optional.
func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'rtprov config show' to see the default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	userPath, err := ConfigFilePath(opts.ConfigDirPath)
	if err != nil {
		return "", err
	}
	if fileExists(userPath) {
		return userPath, nil
	}

	localPath := filepath.Join(opts.WorkDir, LocalConfigFile)
	if fileExists(localPath) {
		return localPath, nil
	}
	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Fields are optional, so validation uses Concrete(false) and the decoded map
// is merged over the defaults already registered in v.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// formatCUEError flattens CUE errors into "<file>: <field.path>: <message>"
// lines.
func formatCUEError(err error, filePath string) error {
	cueErrs := cueerrors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(cueErrs))
	for _, e := range cueErrs {
		pathStr := strings.Join(cueerrors.Path(e), ".")
		msg := e.Error()
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}
		if pathStr != "" {
			lines = append(lines, pathStr+": "+msg)
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to the user config
// file unless one exists (or force is set). It returns the file path and
// whether it was written.
func CreateDefaultConfig(configDirPath string, force bool) (string, bool, error) {
	cfgPath, err := ConfigFilePath(configDirPath)
	if err != nil {
		return "", false, err
	}

	if !force && fileExists(cfgPath) {
		return cfgPath, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write config file: %w", err)
	}
	return cfgPath, true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// rtprov configuration file\n")
	sb.WriteString("// Environment variables prefixed with RTPROV_ override these values.\n\n")

	fmt.Fprintf(&sb, "runtimes_dir: %q\n", cfg.RuntimesDir)

	sb.WriteString("\nversions: {\n")
	fmt.Fprintf(&sb, "\tpython:         %q\n", cfg.Versions.Python)
	fmt.Fprintf(&sb, "\tnodejs:         %q\n", cfg.Versions.NodeJS)
	fmt.Fprintf(&sb, "\trobotframework: %q\n", cfg.Versions.RobotFramework)
	fmt.Fprintf(&sb, "\tjupyter:        %q\n", cfg.Versions.Jupyter)
	sb.WriteString("}\n")

	sb.WriteString("\npython: {\n")
	sb.WriteString("\t// \"exe\" (silent executable installer) or \"embed\" (embeddable zip); Windows only\n")
	fmt.Fprintf(&sb, "\tinstaller_style: %q\n", cfg.Python.InstallerStyle)
	sb.WriteString("}\n")

	sb.WriteString("\nmirrors: {\n")
	fmt.Fprintf(&sb, "\tpython: %q\n", cfg.Mirrors.Python)
	fmt.Fprintf(&sb, "\tnodejs: %q\n", cfg.Mirrors.NodeJS)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nrunner: %q\n", cfg.Runner)

	sb.WriteString("\nsettle: {\n")
	fmt.Fprintf(&sb, "\ttimeout:  %q\n", cfg.Settle.Timeout.String())
	fmt.Fprintf(&sb, "\tinterval: %q\n", cfg.Settle.Interval.String())
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
