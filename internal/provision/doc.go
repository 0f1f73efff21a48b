// SPDX-License-Identifier: MPL-2.0

// Package provision runs the runtime provisioning pipeline.
//
// An Orchestrator is built from an explicit config.Config and installs the
// interpreter runtime and then the Node.js runtime, stopping at the first
// failure:
//
//	orch, err := provision.New(*cfg, provision.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	result := orch.Run(ctx)
//	os.Exit(result.ExitCode())
//
// Plan describes the same pipeline without any network or filesystem access,
// and QueryVersions reports the versions of an already provisioned tree.
package provision
