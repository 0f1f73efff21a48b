// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from the file given with --config, else from
// <user config dir>/rtprov/config.cue, else from ./rtprov.cue. Every file is
// validated against the embedded CUE schema (config_schema.cue) before it is
// merged over the built-in defaults. Environment variables prefixed with
// RTPROV_ override file values (RTPROV_VERSIONS_PYTHON, RTPROV_RUNTIMES_DIR,
// RTPROV_SETTLE_TIMEOUT, ...).
package config
