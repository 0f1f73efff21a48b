// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/invowk/rtprov/pkg/types"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRunner interprets commands with the embedded POSIX shell. External
// programs named by the command are still executed by the host.
type VirtualRunner struct {
	logger *log.Logger
}

// NewVirtualRunner creates a VirtualRunner.
func NewVirtualRunner(logger *log.Logger) *VirtualRunner {
	return &VirtualRunner{logger: logger}
}

// Run parses and interprets req.Command.
func (r *VirtualRunner) Run(ctx context.Context, req Request) *Outcome {
	r.logger.Debug("running command (virtual)", "command", req.Command, "dir", req.Dir)

	prog, err := syntax.NewParser().Parse(strings.NewReader(req.Command), "command")
	if err != nil {
		return &Outcome{Command: req.Command, ExitCode: types.ExitFailure, Err: fmt.Errorf("parsing command: %w", err)}
	}

	stdout, stderr, capOut, capErr := outputs(req)
	shell, err := interp.New(
		interp.Dir(workDir(req.Dir)),
		interp.Env(expand.ListEnviron(MergeEnv(os.Environ(), req.Env, false)...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return &Outcome{Command: req.Command, ExitCode: types.ExitFailure, Err: fmt.Errorf("creating interpreter: %w", err)}
	}

	out := &Outcome{Command: req.Command, ExitCode: types.ExitSuccess}
	if err := shell.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			out.ExitCode = types.ExitCode(status)
		} else {
			out.ExitCode = types.ExitFailure
			out.Err = err
		}
	}
	out.Stdout = capOut.String()
	out.Stderr = capErr.String()
	return out
}
