// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"io"

	"github.com/invowk/rtprov/internal/installer"
	"github.com/invowk/rtprov/internal/runner"
	"github.com/invowk/rtprov/internal/settle"
	"github.com/invowk/rtprov/pkg/platform"

	"github.com/charmbracelet/log"
)

type (
	// Option is a functional option for configuring an Orchestrator.
	Option func(*options)

	options struct {
		platform platform.ID
		goarch   string
		fetcher  installer.Fetcher
		runner   runner.Runner
		clock    settle.Clock
		logger   *log.Logger
		stdout   io.Writer
		stderr   io.Writer
	}
)

// WithPlatform overrides host platform detection.
func WithPlatform(id platform.ID) Option {
	return func(o *options) {
		o.platform = id
	}
}

// WithArch overrides runtime.GOARCH when choosing the Node.js build.
func WithArch(goarch string) Option {
	return func(o *options) {
		o.goarch = goarch
	}
}

// WithFetcher replaces the HTTP artifact fetcher.
func WithFetcher(f installer.Fetcher) Option {
	return func(o *options) {
		o.fetcher = f
	}
}

// WithRunner replaces the command runner selected by the configuration.
func WithRunner(r runner.Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithClock sets the clock used by readiness waits.
func WithClock(c settle.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithOutput sets the writers that receive the live output of installer
// commands. Nil writers discard.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *options) {
		o.stdout = stdout
		o.stderr = stderr
	}
}
