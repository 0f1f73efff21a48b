// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/invowk/rtprov/pkg/platform"
	"github.com/invowk/rtprov/pkg/types"

	"github.com/charmbracelet/log"
)

const (
	// ModeNative runs commands through the host shell.
	ModeNative Mode = "native"
	// ModeVirtual runs commands through the embedded POSIX shell interpreter.
	ModeVirtual Mode = "virtual"

	// stderrTail is how many trailing bytes of stderr a CommandError keeps.
	stderrTail = 2048
)

var (
	// ErrCommandFailed is wrapped by every CommandError.
	ErrCommandFailed = errors.New("command failed")

	// ErrInvalidMode is returned by Mode.Validate.
	ErrInvalidMode = errors.New("invalid runner mode")

	// ErrVirtualUnsupported is returned by New when the virtual shell is
	// requested for a platform whose commands are batch scripts.
	ErrVirtualUnsupported = errors.New("virtual runner is not available on this platform")

	// ErrShellNotFound is returned when no POSIX shell can be located.
	ErrShellNotFound = errors.New("no shell found: set SHELL or install bash/sh")
)

type (
	// Mode selects a Runner implementation.
	Mode string

	// Runner executes a single command synchronously.
	Runner interface {
		Run(ctx context.Context, req Request) *Outcome
	}

	// Request describes one command execution.
	Request struct {
		// Command is the full command line in the platform's shell syntax.
		Command string
		// Dir is the working directory; "" means the current directory.
		Dir string
		// Env holds variables layered on top of the process environment.
		Env map[string]string
		// Stdout and Stderr receive live output. Nil discards it (output is
		// still captured in the Outcome).
		Stdout io.Writer
		Stderr io.Writer
	}

	// Outcome is the result of running a command.
	Outcome struct {
		Command  string
		ExitCode types.ExitCode
		Stdout   string
		Stderr   string
		// Err is set when the command could not be started or waited on.
		// ExitCode is 1 in that case.
		Err error
	}

	// CommandError reports a command that exited non-zero or failed to start.
	CommandError struct {
		Command  string
		ExitCode types.ExitCode
		// Stderr is the tail of the captured standard error.
		Stderr string
		Err    error
	}
)

// Validate returns an error for an unknown mode. The zero value is valid and
// means ModeNative.
func (m Mode) Validate() error {
	switch m {
	case "", ModeNative, ModeVirtual:
		return nil
	}
	return fmt.Errorf("%w: %q (expected %q or %q)", ErrInvalidMode, string(m), ModeNative, ModeVirtual)
}

// New returns the Runner for mode on the given platform profile.
func New(profile platform.Profile, mode Mode, logger *log.Logger) (Runner, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if mode == ModeVirtual {
		if profile.Invocation != platform.InvokeShell {
			return nil, fmt.Errorf("%w: %s", ErrVirtualUnsupported, profile.ID)
		}
		return NewVirtualRunner(logger), nil
	}
	return NewNativeRunner(profile, logger), nil
}

// Success reports whether the command ran and exited 0.
func (o *Outcome) Success() bool {
	return o.Err == nil && o.ExitCode.IsSuccess()
}

// AsError returns nil for a successful outcome and a *CommandError otherwise.
func (o *Outcome) AsError() error {
	if o.Success() {
		return nil
	}
	return &CommandError{
		Command:  o.Command,
		ExitCode: o.ExitCode,
		Stderr:   tail(o.Stderr, stderrTail),
		Err:      o.Err,
	}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	var b strings.Builder
	if e.Err != nil {
		fmt.Fprintf(&b, "%v: %s: %v", ErrCommandFailed, e.Command, e.Err)
	} else {
		fmt.Fprintf(&b, "%v: %s: exit status %d", ErrCommandFailed, e.Command, e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}

// Unwrap returns ErrCommandFailed and, for spawn failures, the cause.
func (e *CommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCommandFailed}
	}
	return []error{ErrCommandFailed, e.Err}
}

// UTF8Env returns the overrides that force the interpreter and its package
// manager to use UTF-8 for standard streams, independent of the console code
// page.
func UTF8Env() map[string]string {
	return map[string]string{
		"PYTHONIOENCODING": "utf-8",
		"PYTHONUTF8":       "1",
	}
}

// MergeEnv returns a copy of env with every key in overrides set. Keys are
// compared case-insensitively when foldCase is true (Windows semantics).
func MergeEnv(env []string, overrides map[string]string, foldCase bool) []string {
	if len(overrides) == 0 {
		return slices.Clone(env)
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]string, 0, len(env)+len(keys))
	for _, kv := range env {
		name, _, _ := strings.Cut(kv, "=")
		if !slices.ContainsFunc(keys, func(k string) bool { return sameKey(k, name, foldCase) }) {
			out = append(out, kv)
		}
	}
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

func sameKey(a, b string, foldCase bool) bool {
	if foldCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// outputs builds the live+capture writers for a request.
func outputs(req Request) (stdout, stderr io.Writer, capOut, capErr *bytes.Buffer) {
	capOut, capErr = &bytes.Buffer{}, &bytes.Buffer{}
	stdout, stderr = io.Writer(capOut), io.Writer(capErr)
	if req.Stdout != nil {
		stdout = io.MultiWriter(req.Stdout, capOut)
	}
	if req.Stderr != nil {
		stderr = io.MultiWriter(req.Stderr, capErr)
	}
	return stdout, stderr, capOut, capErr
}

func workDir(dir string) string {
	if dir != "" {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
