// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for rtprov.
//
// This package implements the Cobra command hierarchy: provision, plan,
// versions and the config subcommands. Commands receive an *App carrying the
// output writers and global flags; there is no package-level mutable state
// besides the ldflags version variables.
package cmd
