// SPDX-License-Identifier: MPL-2.0

// Package manifest defines the runtime version manifest: the four pinned
// version strings a provisioning run installs.
//
// The manifest is supplied externally (config file, environment, or a project
// manifest file such as package.json) and is immutable for the duration of a
// run. Package versions are exact pins; "latest" and version ranges are
// rejected.
package manifest
