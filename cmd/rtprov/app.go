// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/invowk/rtprov/internal/config"
	"github.com/invowk/rtprov/internal/issue"
	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/internal/provision"

	"github.com/charmbracelet/log"
)

type (
	// App wires CLI dependencies. Every Cobra handler receives the App and
	// reads flags and writers from it.
	App struct {
		stdout io.Writer
		stderr io.Writer
		// provisionOpts are appended to the orchestrator options built from
		// the configuration.
		provisionOpts []provision.Option
		flags         globalFlags
		// colorScheme and verbose are known once the configuration loaded.
		colorScheme config.ColorScheme
	}

	// Dependencies defines the injection points for building an App. Nil
	// writers default to the process streams.
	Dependencies struct {
		Stdout io.Writer
		Stderr io.Writer
		// Provision adds orchestrator options, e.g. a fake runner in tests.
		Provision []provision.Option
	}

	globalFlags struct {
		configPath   string
		manifestPath string
		verbose      bool
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
		provisionOpts: deps.Provision,
		colorScheme:   config.ColorSchemeAuto,
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig loads the configuration, applies the --manifest file on top of
// the configured versions and folds --verbose into the UI settings.
func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	cfg, path, err := config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, "", err
	}

	if a.flags.manifestPath != "" {
		versions, err := loadManifest(a.flags.manifestPath, cfg.Versions)
		if err != nil {
			return nil, "", err
		}
		cfg.Versions = versions
	}

	if a.flags.verbose {
		cfg.UI.Verbose = true
	}
	a.flags.verbose = cfg.UI.Verbose
	a.colorScheme = cfg.UI.ColorScheme
	return cfg, path, nil
}

func loadManifest(path string, fallback manifest.Manifest) (manifest.Manifest, error) {
	m, err := manifest.LoadFile(path)
	if err == nil {
		m = m.Normalize().Merge(fallback)
		err = m.Validate()
	}
	if err != nil {
		ctx := issue.NewErrorContext().
			WithOperation("load runtime manifest").
			WithResource(path).
			WithIssue(issue.ManifestInvalidId).
			Wrap(err)
		if errors.Is(err, manifest.ErrUnsupportedManifestFormat) {
			ctx.WithSuggestion("Use a package.json with a \"runtimeVersions\" object, or a TOML or YAML file with a runtimeVersions table")
		} else {
			ctx.WithSuggestion("Pin every runtime to an exact MAJOR.MINOR.PATCH version")
		}
		return manifest.Manifest{}, ctx.BuildError()
	}
	return m, nil
}

// logger returns the run logger: prefixed, on stderr, Debug when verbose.
func (a *App) logger(cfg *config.Config) *log.Logger {
	level := log.InfoLevel
	if cfg.UI.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// orchestrator builds the provisioning orchestrator for cfg.
func (a *App) orchestrator(cfg *config.Config, extra ...provision.Option) (*provision.Orchestrator, error) {
	opts := []provision.Option{
		provision.WithLogger(a.logger(cfg)),
		provision.WithOutput(a.stdout, a.stderr),
	}
	opts = append(opts, extra...)
	opts = append(opts, a.provisionOpts...)

	orch, err := provision.New(*cfg, opts...)
	if err != nil {
		return nil, setupFailure(err)
	}
	return orch, nil
}
