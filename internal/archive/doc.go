// SPDX-License-Identifier: MPL-2.0

// Package archive extracts downloaded runtime distributions.
//
// The extraction routine is selected by platform.ArchiveFormat: zip for the
// Windows distributions, gzip-compressed tar for macOS and xz-compressed tar
// for Linux. Entries that would escape the destination directory are rejected.
package archive
