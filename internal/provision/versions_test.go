// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/invowk/rtprov/internal/config"
	"github.com/invowk/rtprov/internal/installer"
	"github.com/invowk/rtprov/internal/runner"
	"github.com/invowk/rtprov/internal/runner/runnertest"
	"github.com/invowk/rtprov/internal/testutil"
	"github.com/invowk/rtprov/pkg/platform"
	"github.com/invowk/rtprov/pkg/types"
)

func provisionedTree(t *testing.T) (installer.Layout, platform.Profile, string) {
	t.Helper()
	layout, err := installer.NewLayout(filepath.Join(t.TempDir(), "runtimes"))
	if err != nil {
		t.Fatal(err)
	}
	profile := platform.MustProfile(platform.Linux)
	nodeHome := filepath.Join(layout.NodeRoot(), "node-v18.16.0-linux-x64")
	testutil.MustWriteFile(t, profile.VenvPython(layout.VenvDir()), "", 0o755)
	testutil.MustWriteFile(t, profile.NodeBinary(nodeHome), "", 0o755)
	return layout, profile, nodeHome
}

func TestQueryVersions(t *testing.T) {
	t.Parallel()

	layout, profile, nodeHome := provisionedTree(t)
	rec := runnertest.New().
		Stdout("python --version", "Python 3.11.0\n").
		Stdout("node --version", "v18.16.0\n")

	got, err := QueryVersions(context.Background(), rec, layout, profile, nodeHome)
	if err != nil {
		t.Fatalf("QueryVersions() error = %v", err)
	}
	if got.Python != "Python 3.11.0" || got.NodeJS != "v18.16.0" {
		t.Errorf("QueryVersions() = %+v", got)
	}

	want := []string{
		runner.Quote(profile, profile.VenvPython(layout.VenvDir())) + " --version",
		runner.Quote(profile, profile.NodeBinary(nodeHome)) + " --version",
	}
	cmds := rec.Commands()
	if len(cmds) != 2 || cmds[0] != want[0] || cmds[1] != want[1] {
		t.Errorf("commands = %q, want %q", cmds, want)
	}
}

func TestQueryVersions_StderrFallback(t *testing.T) {
	t.Parallel()

	layout, profile, nodeHome := provisionedTree(t)
	rec := runnertest.New().On("python --version", func(runner.Request) *runner.Outcome {
		return &runner.Outcome{Stderr: "Python 2.7.18\n"}
	})

	got, err := QueryVersions(context.Background(), rec, layout, profile, nodeHome)
	if err != nil {
		t.Fatalf("QueryVersions() error = %v", err)
	}
	if got.Python != "Python 2.7.18" {
		t.Errorf("Python = %q", got.Python)
	}
}

func TestQueryVersions_NotProvisioned(t *testing.T) {
	t.Parallel()

	layout, err := installer.NewLayout(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec := runnertest.New()

	_, err = QueryVersions(context.Background(), rec, layout, platform.MustProfile(platform.Linux), layout.NodeRoot())
	var npErr *NotProvisionedError
	if !errors.As(err, &npErr) || !errors.Is(err, ErrNotProvisioned) {
		t.Fatalf("QueryVersions() error = %v, want *NotProvisionedError", err)
	}
	if npErr.Runtime != "python" {
		t.Errorf("Runtime = %q, want python", npErr.Runtime)
	}
	if len(rec.Commands()) != 0 {
		t.Errorf("commands = %v, want none for a missing binary", rec.Commands())
	}
}

func TestQueryVersions_CommandFails(t *testing.T) {
	t.Parallel()

	layout, profile, nodeHome := provisionedTree(t)
	rec := runnertest.New().Fail("node --version", 126, "permission denied")

	_, err := QueryVersions(context.Background(), rec, layout, profile, nodeHome)
	if !errors.Is(err, runner.ErrCommandFailed) {
		t.Fatalf("QueryVersions() error = %v, want ErrCommandFailed", err)
	}
}

func TestOrchestrator_Versions(t *testing.T) {
	t.Parallel()

	cfg := *config.DefaultConfig()
	cfg.RuntimesDir = types.FilesystemPath(filepath.Join(t.TempDir(), "runtimes"))
	layout, err := installer.NewLayout(string(cfg.RuntimesDir))
	if err != nil {
		t.Fatal(err)
	}
	profile := platform.MustProfile(platform.Linux)
	testutil.MustWriteFile(t, profile.VenvPython(layout.VenvDir()), "", 0o755)
	testutil.MustWriteFile(t, profile.NodeBinary(filepath.Join(layout.NodeRoot(), "node-v18.16.0-linux-arm64")), "", 0o755)

	rec := runnertest.New().Stdout("--version", "ok\n")
	orch, err := New(cfg, WithPlatform(platform.Linux), WithArch("arm64"), WithRunner(rec))
	if err != nil {
		t.Fatal(err)
	}
	got, err := orch.Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions() error = %v", err)
	}
	if got.Python != "ok" || got.NodeJS != "ok" {
		t.Errorf("Versions() = %+v", got)
	}
}
