// SPDX-License-Identifier: MPL-2.0

// Package fetch streams remote artifacts (installers, runtime archives) to
// local files.
//
// The response body is copied straight to disk; payloads are never held in
// memory. A download is only successful when the server answered 2xx and at
// least one byte was written. There is no retry at this layer.
package fetch
