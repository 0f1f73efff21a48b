// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by the rtprov test suites.
//
// It covers environment management (MustSetenv, SetConfigHome), filesystem
// assertions (MustWriteFile, AssertExists, AssertAbsent, Snapshot), in-memory
// archive builders for the three distribution formats, and a FakeClock for
// readiness-wait tests.
package testutil
