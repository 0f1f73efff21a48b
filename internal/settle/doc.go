// SPDX-License-Identifier: MPL-2.0

// Package settle waits for a filesystem post-condition to hold after an
// external installer returns, polling with a bounded timeout.
package settle
