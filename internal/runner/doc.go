// SPDX-License-Identifier: MPL-2.0

// Package runner executes external programs and shell commands for the
// installers.
//
// A Runner streams the child's output live to the operator while also
// capturing it, and reports the result as an Outcome keyed on the exit
// status. It does not interpret why a command failed; callers convert a
// failed Outcome into a *CommandError with Outcome.AsError.
//
// NativeRunner hands commands to the host: on Windows through a temporary
// batch script run by cmd.exe, elsewhere through the user's shell with -c.
// VirtualRunner interprets the command in-process with mvdan.cc/sh.
package runner
