// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/invowk/rtprov/internal/archive"
	"github.com/invowk/rtprov/internal/fetch"
	"github.com/invowk/rtprov/internal/installer"
	"github.com/invowk/rtprov/internal/issue"
	"github.com/invowk/rtprov/internal/provision"
	"github.com/invowk/rtprov/internal/runner"
	"github.com/invowk/rtprov/internal/settle"
	"github.com/invowk/rtprov/pkg/platform"

	"github.com/charmbracelet/fang"
)

const rerunSuggestion = "Re-run 'rtprov provision'; completed steps are safe to repeat"

// renderError is the fang error handler. Actionable errors are printed with
// their suggestions and catalog entry; anything else falls back to fang.
func (a *App) renderError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fang.DefaultErrorHandler(w, styles, err)
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+ae.Format(a.flags.verbose))
	entry := ae.CatalogEntry()
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(string(a.colorScheme))
	if renderErr != nil {
		fmt.Fprintln(w, WarningStyle.Render("Warning: ")+"failed to render help: "+renderErr.Error())
		return
	}
	fmt.Fprint(w, rendered)
}

// provisionFailure converts the error that stopped a provisioning run into
// an actionable error naming the runtime, the step and what to try next.
func provisionFailure(err error) error {
	ctx := issue.NewErrorContext().WithOperation("provision runtimes")
	cause := err
	var stepErr *installer.StepError
	if errors.As(err, &stepErr) {
		ctx.WithOperation(fmt.Sprintf("provision %s (%s)", stepErr.Runtime, stepErr.Step))
		cause = stepErr.Err
	}
	classify(ctx, err)
	if !errors.Is(err, context.Canceled) {
		ctx.WithSuggestion(rerunSuggestion)
	}
	return ctx.Wrap(cause).BuildError()
}

// classify adds the resource, suggestions and catalog entry for the failure
// class of err.
func classify(ctx *issue.ErrorContext, err error) {
	var (
		dlErr      *fetch.DownloadError
		cmdErr     *runner.CommandError
		extErr     *archive.ExtractionError
		timeoutErr *settle.TimeoutError
		fsErr      *installer.FilesystemError
	)

	switch {
	case errors.Is(err, context.Canceled):
		ctx.WithSuggestion("The run was interrupted; partially installed runtimes are left in place")

	case errors.As(err, &dlErr):
		ctx.WithResource(dlErr.RedactedURL()).WithIssue(issue.DownloadFailedId)
		if errors.Is(err, fetch.ErrBadStatus) {
			ctx.WithSuggestion(fmt.Sprintf("The server answered HTTP %d; verify the pinned version exists on the mirror", dlErr.StatusCode))
		}
		ctx.WithSuggestion("Check network connectivity or configure a mirror (mirrors.python / mirrors.nodejs)")

	case errors.Is(err, installer.ErrNoVenvModule):
		ctx.WithSuggestion("Set python: installer_style: \"exe\"; the embeddable zip cannot create the isolated environment")

	case errors.Is(err, runner.ErrShellNotFound):
		ctx.WithIssue(issue.ShellNotFoundId).
			WithSuggestion("Set SHELL to a POSIX shell, or install bash or sh")

	case errors.As(err, &cmdErr):
		ctx.WithResource(cmdErr.Command).WithIssue(issue.InstallerCommandFailedId).
			WithSuggestion("Read the command output above for the installer's own error")

	case errors.As(err, &extErr):
		ctx.WithResource(extErr.Archive).WithIssue(issue.ExtractionFailedId).
			WithSuggestion("The downloaded archive was kept for inspection; delete it before re-running")

	case errors.As(err, &timeoutErr):
		ctx.WithResource(timeoutErr.What).WithIssue(issue.ReadinessTimeoutId).
			WithSuggestion("Increase settle.timeout if the machine is slow")

	case errors.As(err, &fsErr):
		ctx.WithResource(fsErr.Path).WithIssue(issue.FilesystemFailedId).
			WithSuggestion("Check that runtimes_dir is writable and the disk is not full")
	}
}

// setupFailure converts orchestrator construction errors.
func setupFailure(err error) error {
	ctx := issue.NewErrorContext().WithOperation("prepare provisioning").Wrap(err)
	switch {
	case errors.Is(err, platform.ErrUnsupportedPlatform):
		ctx.WithIssue(issue.PlatformNotSupportedId).
			WithSuggestion("rtprov provisions on windows, macos and linux only")
	case errors.Is(err, runner.ErrVirtualUnsupported):
		ctx.WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Set runner: \"native\" in the configuration on this platform")
	}
	return ctx.BuildError()
}

// versionsFailure converts version-query errors.
func versionsFailure(err error) error {
	ctx := issue.NewErrorContext().WithOperation("query runtime versions")
	var npErr *provision.NotProvisionedError
	if errors.As(err, &npErr) {
		ctx.WithResource(npErr.Path).
			WithIssue(issue.RuntimeNotProvisionedId).
			WithSuggestion("Run 'rtprov provision' first, with the same runtimes_dir and versions")
	} else {
		classify(ctx, err)
	}
	return ctx.Wrap(err).BuildError()
}
