// SPDX-License-Identifier: MPL-2.0

// Package platform identifies the host platform a provisioning run targets and
// holds the per-platform behavior table.
//
// Every platform-specific decision the pipeline makes (archive format of the
// Node.js distribution, how commands are handed to the OS, where a virtual
// environment keeps its binaries, what the activation script looks like) is
// read from a single Profile looked up by ID. Callers should never compare
// runtime.GOOS strings themselves.
package platform
