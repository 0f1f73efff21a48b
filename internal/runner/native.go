// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/invowk/rtprov/pkg/platform"
	"github.com/invowk/rtprov/pkg/types"

	"github.com/charmbracelet/log"
)

type (
	// NativeRunner runs commands through the host command interpreter.
	NativeRunner struct {
		profile platform.Profile
		logger  *log.Logger
		// tempDir holds batch scripts; "" means os.TempDir().
		tempDir string
		// command builds the child process. Replaced in tests.
		command func(ctx context.Context, name string, args ...string) *exec.Cmd
		// shell locates the POSIX shell. Replaced in tests.
		shell func() (string, error)
	}
)

// NewNativeRunner creates a NativeRunner for profile.
func NewNativeRunner(profile platform.Profile, logger *log.Logger) *NativeRunner {
	return &NativeRunner{
		profile: profile,
		logger:  logger,
		command: exec.CommandContext,
		shell:   findShell,
	}
}

// Run executes req.Command and waits for it to finish.
func (r *NativeRunner) Run(ctx context.Context, req Request) *Outcome {
	r.logger.Debug("running command", "command", req.Command, "dir", req.Dir)

	if r.profile.Invocation == platform.InvokeBatchScript {
		return r.runBatch(ctx, req)
	}

	shell, err := r.shell()
	if err != nil {
		return &Outcome{Command: req.Command, ExitCode: types.ExitFailure, Err: err}
	}
	return r.start(ctx, req, r.command(ctx, shell, "-c", req.Command))
}

// runBatch writes the command into a temporary .bat file and runs it with
// cmd.exe. The file is removed on every path.
func (r *NativeRunner) runBatch(ctx context.Context, req Request) *Outcome {
	script, err := os.CreateTemp(r.tempDir, "rtprov-*.bat")
	if err != nil {
		return &Outcome{Command: req.Command, ExitCode: types.ExitFailure, Err: fmt.Errorf("creating batch script: %w", err)}
	}
	path := script.Name()
	defer func() { _ = os.Remove(path) }() // best-effort cleanup of a transient file

	body := "@echo off\r\n" + strings.ReplaceAll(req.Command, "\n", "\r\n") + "\r\n"
	if _, err := script.WriteString(body); err != nil {
		_ = script.Close()
		return &Outcome{Command: req.Command, ExitCode: types.ExitFailure, Err: fmt.Errorf("writing batch script: %w", err)}
	}
	if err := script.Close(); err != nil {
		return &Outcome{Command: req.Command, ExitCode: types.ExitFailure, Err: fmt.Errorf("writing batch script: %w", err)}
	}

	return r.start(ctx, req, r.command(ctx, "cmd.exe", "/D", "/C", path))
}

func (r *NativeRunner) start(ctx context.Context, req Request, cmd *exec.Cmd) *Outcome {
	stdout, stderr, capOut, capErr := outputs(req)
	cmd.Dir = workDir(req.Dir)
	cmd.Env = MergeEnv(os.Environ(), req.Env, r.profile.ID.IsWindows())
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Start()
	if err == nil {
		err = cmd.Wait()
	}

	out := exitOutcome(ctx, err)
	out.Command = req.Command
	out.Stdout = capOut.String()
	out.Stderr = capErr.String()
	if !out.Success() {
		r.logger.Debug("command failed", "command", req.Command, "exit", out.ExitCode, "err", out.Err)
	}
	return out
}

// exitOutcome classifies the error returned by Start/Wait.
func exitOutcome(ctx context.Context, err error) *Outcome {
	if err == nil {
		return &Outcome{ExitCode: types.ExitSuccess}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &Outcome{ExitCode: types.ExitFailure, Err: ctxErr}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := types.ExitCode(exitErr.ExitCode())
		if validateErr := code.Validate(); validateErr != nil {
			return &Outcome{ExitCode: types.ExitFailure, Err: validateErr}
		}
		return &Outcome{ExitCode: code}
	}

	// The program never ran (not found, permission denied).
	return &Outcome{ExitCode: types.ExitFailure, Err: err}
}

// findShell returns $SHELL, else bash, else sh from PATH.
func findShell() (string, error) {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash, nil
	}
	if sh, err := exec.LookPath("sh"); err == nil {
		return sh, nil
	}
	return "", ErrShellNotFound
}
