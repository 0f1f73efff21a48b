// SPDX-License-Identifier: MPL-2.0

// Package runnertest provides a recording runner.Runner for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/invowk/rtprov/internal/runner"
	"github.com/invowk/rtprov/pkg/types"
)

type (
	// Handler produces the outcome for a matched request. It may create
	// files to simulate the command's side effects.
	Handler func(req runner.Request) *runner.Outcome

	// Recorder is a runner.Runner that records every request and answers
	// from registered handlers. Unmatched requests succeed.
	Recorder struct {
		mu    sync.Mutex
		calls []runner.Request
		rules []rule
	}

	rule struct {
		substr  string
		handler Handler
	}
)

// New creates an empty Recorder.
func New() *Recorder { return &Recorder{} }

// On registers h for requests whose command contains substr. The first
// matching rule wins.
func (r *Recorder) On(substr string, h Handler) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{substr: substr, handler: h})
	return r
}

// Fail makes requests containing substr exit with code.
func (r *Recorder) Fail(substr string, code types.ExitCode, stderr string) *Recorder {
	return r.On(substr, func(req runner.Request) *runner.Outcome {
		return &runner.Outcome{Command: req.Command, ExitCode: code, Stderr: stderr}
	})
}

// Stdout makes requests containing substr succeed printing out.
func (r *Recorder) Stdout(substr, out string) *Recorder {
	return r.On(substr, func(req runner.Request) *runner.Outcome {
		return &runner.Outcome{Command: req.Command, Stdout: out}
	})
}

// Run implements runner.Runner.
func (r *Recorder) Run(_ context.Context, req runner.Request) *runner.Outcome {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	var h Handler
	for _, rl := range r.rules {
		if strings.Contains(req.Command, rl.substr) {
			h = rl.handler
			break
		}
	}
	r.mu.Unlock()

	if h == nil {
		return &runner.Outcome{Command: req.Command}
	}
	out := h(req)
	if out.Command == "" {
		out.Command = req.Command
	}
	if req.Stdout != nil && out.Stdout != "" {
		_, _ = req.Stdout.Write([]byte(out.Stdout))
	}
	return out
}

// Requests returns a copy of the recorded requests.
func (r *Recorder) Requests() []runner.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]runner.Request, len(r.calls))
	copy(out, r.calls)
	return out
}

// Commands returns the recorded command lines in call order.
func (r *Recorder) Commands() []string {
	reqs := r.Requests()
	out := make([]string, len(reqs))
	for i, req := range reqs {
		out[i] = req.Command
	}
	return out
}
