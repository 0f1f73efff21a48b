// SPDX-License-Identifier: MPL-2.0

// Package resolve maps a runtime, its pinned version and the host platform to
// a concrete download location. Resolution is a pure function: no network or
// filesystem access happens here.
package resolve
