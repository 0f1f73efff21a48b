// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

type (
	// ActionableError is a user-facing failure: what was attempted, on which
	// resource, the underlying cause and what to try next. Issue optionally
	// links a catalog entry with longer guidance.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("provision nodejs (fetch-archive)").
	//		WithResource("https://nodejs.org/dist/v18.16.0/node-v18.16.0-linux-x64.tar.xz").
	//		WithSuggestion("Check network connectivity or configure a mirror").
	//		WithIssue(issue.DownloadFailedId).
	//		Wrap(cause).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase: "load configuration",
		// "provision python (create-isolated-environment)".
		Operation   string
		Resource    string
		Suggestions []string
		Cause       error
		Issue       Id
	}

	// ErrorContext accumulates an ActionableError. Callers typically set the
	// operation up front and add the resource and hints once the failure
	// class is known.
	ErrorContext struct {
		ae ActionableError
	}
)

// NewErrorContext returns an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error returns "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error { return e.Cause }

// Format returns Error followed by one bullet per suggestion. Verbose output
// also lists the numbered cause chain.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())
	if len(e.Suggestions) > 0 {
		b.WriteByte('\n')
	}
	for _, s := range e.Suggestions {
		fmt.Fprintf(&b, "\n  • %s", s)
	}
	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		writeChain(&b, e.Cause, 1)
	}
	return b.String()
}

// CatalogEntry returns the linked catalog issue, or nil.
func (e *ActionableError) CatalogEntry() *Issue {
	if e.Issue == 0 {
		return nil
	}
	return Get(e.Issue)
}

func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.ae.Operation = op
	return c
}

func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.ae.Resource = res
	return c
}

// WithSuggestion appends hints in the order they should be shown.
func (c *ErrorContext) WithSuggestion(hints ...string) *ErrorContext {
	c.ae.Suggestions = append(c.ae.Suggestions, hints...)
	return c
}

func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.ae.Issue = id
	return c
}

// Wrap sets the underlying cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.ae.Cause = err
	return c
}

// Build returns a copy of the accumulated error, or nil when no operation
// was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.ae.Operation == "" {
		return nil
	}
	ae := c.ae
	ae.Suggestions = slices.Clone(c.ae.Suggestions)
	return &ae
}

// BuildError is Build for return statements; it never returns a typed nil.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}

// writeChain prints err and its causes depth-first. Errors that wrap several
// causes (errors.Join, multi-%w) list every branch.
func writeChain(b *strings.Builder, err error, depth int) int {
	for err != nil {
		fmt.Fprintf(b, "\n  %d. %s", depth, err.Error())
		depth++
		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range multi.Unwrap() {
				depth = writeChain(b, e, depth)
			}
			return depth
		}
		err = errors.Unwrap(err)
	}
	return depth
}
