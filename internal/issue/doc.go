// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation hints. Each error may point at an entry of the issue catalog,
// whose Markdown guidance is rendered with glamour when the CLI reports it.
package issue
