// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"io"
	goruntime "runtime"

	"github.com/invowk/rtprov/internal/config"
	"github.com/invowk/rtprov/internal/fetch"
	"github.com/invowk/rtprov/internal/installer"
	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/internal/resolve"
	"github.com/invowk/rtprov/internal/runner"
	"github.com/invowk/rtprov/pkg/platform"
	"github.com/invowk/rtprov/pkg/types"

	"github.com/charmbracelet/log"
)

// UserAgent is sent with every artifact download.
const UserAgent = "rtprov"

type (
	// Orchestrator runs the installers of one provisioning run in a fixed
	// order. It holds no state between runs.
	Orchestrator struct {
		cfg        config.Config
		deps       installer.Deps
		installers []installer.Installer
		logger     *log.Logger
	}

	// Result is the outcome of a provisioning run. The run is fail-fast, so
	// Err is the single failure that stopped it.
	Result struct {
		Success bool
		Err     error
		// Completed lists the runtimes that finished before the run ended.
		Completed []manifest.Name
	}
)

// New builds an Orchestrator for cfg. The configuration must already be
// valid; New fails only for an unsupported platform or runner mode.
func New(cfg config.Config, opts ...Option) (*Orchestrator, error) {
	o := options{goarch: goruntime.GOARCH}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}

	deps, err := buildDeps(cfg, o)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		cfg:  cfg,
		deps: deps,
		installers: []installer.Installer{
			installer.NewInterpreter(deps, cfg.Versions),
			installer.NewArchive(deps, manifest.NodeJS),
		},
		logger: o.logger,
	}, nil
}

func buildDeps(cfg config.Config, o options) (installer.Deps, error) {
	id := o.platform
	if id == "" {
		detected, err := platform.Detect()
		if err != nil {
			return installer.Deps{}, err
		}
		id = detected
	}
	profile, err := platform.ProfileFor(id)
	if err != nil {
		return installer.Deps{}, err
	}

	layout, err := installer.NewLayout(string(cfg.RuntimesDir))
	if err != nil {
		return installer.Deps{}, err
	}

	run := o.runner
	if run == nil {
		if run, err = runner.New(profile, cfg.Runner, o.logger); err != nil {
			return installer.Deps{}, err
		}
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = fetch.New(fetch.WithLogger(o.logger), fetch.WithUserAgent(UserAgent))
	}

	settleOpts := cfg.SettleOptions()
	settleOpts.Clock = o.clock

	return installer.Deps{
		Profile:  profile,
		Layout:   layout,
		Resolver: resolve.New(cfg.Versions, cfg.ResolverOptions(o.goarch)),
		Fetcher:  fetcher,
		Runner:   run,
		Settle:   settleOpts,
		Logger:   o.logger,
		Stdout:   o.stdout,
		Stderr:   o.stderr,
	}, nil
}

// Platform returns the platform the orchestrator provisions for.
func (o *Orchestrator) Platform() platform.ID { return o.deps.Profile.ID }

// Layout returns the install-directory layout.
func (o *Orchestrator) Layout() installer.Layout { return o.deps.Layout }

// Run installs every runtime in order and stops at the first failure.
func (o *Orchestrator) Run(ctx context.Context) *Result {
	o.logger.Info("provisioning runtimes",
		"platform", o.deps.Profile.ID,
		"runtimes_dir", o.deps.Layout.Root,
		"versions", o.cfg.Versions.String())

	result := &Result{}
	for _, inst := range o.installers {
		name := inst.Runtime()
		o.logger.Info("installing", "runtime", name)

		if err := inst.Install(ctx); err != nil {
			fields := []any{"runtime", name}
			var stepErr *installer.StepError
			if errors.As(err, &stepErr) {
				fields = append(fields, "step", stepErr.Step)
			}
			fields = append(fields, "err", err)
			o.logger.Error("provisioning failed", fields...)

			result.Err = err
			return result
		}

		o.logger.Info("installed", "runtime", name)
		result.Completed = append(result.Completed, name)
	}

	o.logger.Info("provisioning complete", "runtimes", len(result.Completed))
	result.Success = true
	return result
}

// ExitCode maps the result to the process exit status.
func (r *Result) ExitCode() types.ExitCode {
	if r.Success {
		return types.ExitSuccess
	}
	return types.ExitFailure
}
