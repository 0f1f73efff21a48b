// SPDX-License-Identifier: MPL-2.0

// Package installer implements the per-runtime installation procedures.
//
// Interpreter provisions the Python interpreter (downloaded and silently
// installed on Windows, taken from PATH elsewhere), an isolated virtual
// environment with pinned packages, and an activation script. Archive
// provisions a runtime shipped as a compressed archive (Node.js): fetch,
// extract, then delete the archive.
//
// Every step is idempotent so a failed run can be repeated. The first failing
// step aborts the installer with a *StepError; nothing is rolled back.
package installer
