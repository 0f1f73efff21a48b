// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "provision runtimes"},
			want: "failed to provision runtimes",
		},
		{
			name: "with resource",
			err:  &ActionableError{Operation: "load configuration", Resource: "rtprov.cue"},
			want: "failed to load configuration: rtprov.cue",
		},
		{
			name: "with cause",
			err: &ActionableError{
				Operation: "provision nodejs (fetch-archive)",
				Resource:  "node-v18.16.0-linux-x64.tar.xz",
				Cause:     errors.New("unexpected HTTP status 404"),
			},
			want: "failed to provision nodejs (fetch-archive): node-v18.16.0-linux-x64.tar.xz: unexpected HTTP status 404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("connection refused")
	err := error(&ActionableError{Operation: "download", Cause: fmt.Errorf("network error: %w", sentinel)})
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("permission denied")
	err := &ActionableError{
		Operation:   "provision python (directory-create)",
		Resource:    "/opt/runtimes/python",
		Suggestions: []string{"Check permissions of the runtimes directory", "Choose another runtimes_dir"},
		Cause:       fmt.Errorf("create directory: %w", root),
	}

	short := err.Format(false)
	if !strings.Contains(short, "  • Check permissions of the runtimes directory") {
		t.Errorf("Format(false) missing suggestion:\n%s", short)
	}
	if strings.Contains(short, "Error chain:") {
		t.Errorf("Format(false) should not include the error chain:\n%s", short)
	}

	long := err.Format(true)
	if !strings.Contains(long, "Error chain:") || !strings.Contains(long, "2. permission denied") {
		t.Errorf("Format(true) missing chain:\n%s", long)
	}
}

func TestActionableError_FormatMultiCause(t *testing.T) {
	t.Parallel()

	a, b := errors.New("command failed"), errors.New("exec: not found")
	err := &ActionableError{Operation: "run", Cause: errors.Join(a, b)}

	long := err.Format(true)
	for _, want := range []string{"2. command failed", "3. exec: not found"} {
		if !strings.Contains(long, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, long)
		}
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("provision nodejs (extract)").
		WithResource("node.tar.xz").
		WithSuggestion("Delete the archive").
		WithSuggestion("Re-run rtprov provision", "Check the mirror").
		WithIssue(ExtractionFailedId).
		Wrap(cause).
		Build()

	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if len(ae.Suggestions) != 3 || ae.Suggestions[2] != "Check the mirror" {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if ae.Cause != cause {
		t.Errorf("Cause = %v, want %v", ae.Cause, cause)
	}
	if entry := ae.CatalogEntry(); entry == nil || entry.Id() != ExtractionFailedId {
		t.Errorf("CatalogEntry() = %v, want extraction issue", entry)
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if ae := NewErrorContext().WithResource("x").Build(); ae != nil {
		t.Errorf("Build() = %v, want nil", ae)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want nil", err)
	}
	if (&ActionableError{Operation: "x"}).CatalogEntry() != nil {
		t.Error("CatalogEntry() without issue should be nil")
	}
}

func TestErrorContext_BuildCopies(t *testing.T) {
	t.Parallel()

	ctx := NewErrorContext().WithOperation("query runtime versions").WithSuggestion("first")
	first := ctx.Build()
	ctx.WithSuggestion("second").WithResource("/rt/python")

	if len(first.Suggestions) != 1 || first.Resource != "" {
		t.Errorf("earlier Build() result changed: %+v", first)
	}
	if second := ctx.Build(); len(second.Suggestions) != 2 || second.Resource != "/rt/python" {
		t.Errorf("Build() = %+v", second)
	}
}
