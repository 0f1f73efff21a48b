// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"
	"time"

	"github.com/invowk/rtprov/internal/issue"
	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/internal/resolve"
	"github.com/invowk/rtprov/internal/runner"
	"github.com/invowk/rtprov/internal/testutil"
)

// isolated returns load options that never see the caller's real config.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{ConfigDirPath: t.TempDir(), WorkDir: t.TempDir()}
}

func issueOf(t *testing.T, err error) issue.Id {
	t.Helper()
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T: %v", err, err)
	}
	return ae.Issue
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := Load(context.Background(), isolated(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty when no file exists", path)
	}

	want := DefaultConfig()
	if cfg.RuntimesDir != want.RuntimesDir {
		t.Errorf("RuntimesDir = %q, want %q", cfg.RuntimesDir, want.RuntimesDir)
	}
	if cfg.Versions != manifest.Default() {
		t.Errorf("Versions = %v, want %v", cfg.Versions, manifest.Default())
	}
	if cfg.Runner != runner.ModeNative {
		t.Errorf("Runner = %q, want native", cfg.Runner)
	}
	if cfg.Settle.Timeout != 60*time.Second || cfg.Settle.Interval != 500*time.Millisecond {
		t.Errorf("Settle = %+v", cfg.Settle)
	}
	if cfg.Python.InstallerStyle != resolve.InstallerExe {
		t.Errorf("InstallerStyle = %q", cfg.Python.InstallerStyle)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "custom.cue")
	testutil.MustWriteFile(t, opts.ConfigFilePath, `
runtimes_dir: "/srv/runtimes"
versions: {
	python: "v3.12.1"
	nodejs: "20.11.0"
}
mirrors: nodejs: "https://mirror.example.com/node"
runner: "virtual"
settle: {
	timeout:  "90s"
	interval: "250ms"
}
`, 0o644)

	cfg, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != opts.ConfigFilePath {
		t.Errorf("path = %q, want %q", path, opts.ConfigFilePath)
	}
	if cfg.RuntimesDir != "/srv/runtimes" {
		t.Errorf("RuntimesDir = %q", cfg.RuntimesDir)
	}
	if cfg.Versions.Python != "3.12.1" {
		t.Errorf("Versions.Python = %q, want normalized 3.12.1", cfg.Versions.Python)
	}
	if cfg.Versions.NodeJS != "20.11.0" {
		t.Errorf("Versions.NodeJS = %q", cfg.Versions.NodeJS)
	}
	if cfg.Versions.RobotFramework != manifest.Default().RobotFramework {
		t.Errorf("omitted robotframework should keep its default, got %q", cfg.Versions.RobotFramework)
	}
	if cfg.Mirrors.NodeJS != "https://mirror.example.com/node" {
		t.Errorf("Mirrors.NodeJS = %q", cfg.Mirrors.NodeJS)
	}
	if cfg.Mirrors.Python != resolve.DefaultPythonMirror {
		t.Errorf("Mirrors.Python = %q", cfg.Mirrors.Python)
	}
	if cfg.Runner != runner.ModeVirtual {
		t.Errorf("Runner = %q", cfg.Runner)
	}
	if cfg.Settle.Timeout != 90*time.Second || cfg.Settle.Interval != 250*time.Millisecond {
		t.Errorf("Settle = %+v", cfg.Settle)
	}
}

func TestLoad_SearchOrder(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	local := filepath.Join(opts.WorkDir, LocalConfigFile)
	testutil.MustWriteFile(t, local, `runtimes_dir: "local"`+"\n", 0o644)

	cfg, path, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != local || cfg.RuntimesDir != "local" {
		t.Fatalf("got (%q, %q), want the working directory file", path, cfg.RuntimesDir)
	}

	user := filepath.Join(opts.ConfigDirPath, ConfigFileName+"."+ConfigFileExt)
	testutil.MustWriteFile(t, user, `runtimes_dir: "user"`+"\n", 0o644)

	cfg, path, err = Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != user || cfg.RuntimesDir != "user" {
		t.Fatalf("got (%q, %q), want the user config file to win", path, cfg.RuntimesDir)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "nope.cue")

	_, _, err := Load(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error for missing --config file")
	}
	if got := issueOf(t, err); got != issue.ConfigLoadFailedId {
		t.Errorf("issue = %d, want ConfigLoadFailedId", got)
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("error = %q", err)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"bad runner", `runner: "docker"` + "\n", "runner"},
		{"unknown field", `colour: "blue"` + "\n", "colour"},
		{"version range", `versions: python: "^3.11"` + "\n", "versions.python"},
		{"partial version", `versions: nodejs: "18.16"` + "\n", "versions.nodejs"},
		{"bad duration", `settle: timeout: "soon"` + "\n", "settle.timeout"},
		{"relative mirror", `mirrors: python: "ftp/python"` + "\n", "mirrors.python"},
		{"syntax error", `runner: "native` + "\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolated(t)
			opts.ConfigFilePath = filepath.Join(t.TempDir(), "config.cue")
			testutil.MustWriteFile(t, opts.ConfigFilePath, tt.content, 0o644)

			_, _, err := Load(context.Background(), opts)
			if err == nil {
				t.Fatal("expected schema error")
			}
			if got := issueOf(t, err); got != issue.ConfigLoadFailedId {
				t.Errorf("issue = %d, want ConfigLoadFailedId", got)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_OversizedFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "big.cue")
	testutil.MustWriteFile(t, opts.ConfigFilePath, "// "+strings.Repeat("x", maxConfigFileSize)+"\n", 0o644)

	_, _, err := Load(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Fatalf("Load() error = %v, want size error", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Load() error = %v, want context.Canceled", err)
	}
}

// Environment tests mutate process state and must not run in parallel.

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RTPROV_RUNTIMES_DIR", "/env/runtimes")
	t.Setenv("RTPROV_VERSIONS_NODEJS", "20.0.0")
	t.Setenv("RTPROV_SETTLE_TIMEOUT", "5s")
	t.Setenv("RTPROV_UI_VERBOSE", "true")

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "config.cue")
	testutil.MustWriteFile(t, opts.ConfigFilePath, `runtimes_dir: "/file/runtimes"`+"\n", 0o644)

	cfg, _, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RuntimesDir != "/env/runtimes" {
		t.Errorf("RuntimesDir = %q, want env value to win over file", cfg.RuntimesDir)
	}
	if cfg.Versions.NodeJS != "20.0.0" {
		t.Errorf("Versions.NodeJS = %q", cfg.Versions.NodeJS)
	}
	if cfg.Settle.Timeout != 5*time.Second {
		t.Errorf("Settle.Timeout = %s", cfg.Settle.Timeout)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
}

func TestLoad_EnvInvalidVersion(t *testing.T) {
	t.Setenv("RTPROV_VERSIONS_PYTHON", "latest")

	_, _, err := Load(context.Background(), isolated(t))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := issueOf(t, err); got != issue.ManifestInvalidId {
		t.Errorf("issue = %d, want ManifestInvalidId", got)
	}
	if !errors.Is(err, manifest.ErrInvalidManifest) || !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error %v should match ErrInvalidManifest and ErrInvalidConfig", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	custom := DefaultConfig()
	custom.RuntimesDir = "/opt/rt"
	custom.Versions.Jupyter = "7.1.2"
	custom.Runner = runner.ModeVirtual
	custom.Settle.Timeout = 2 * time.Minute
	custom.UI.ColorScheme = ColorSchemeDark

	opts := isolated(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "generated.cue")
	testutil.MustWriteFile(t, opts.ConfigFilePath, GenerateCUE(custom), 0o644)

	cfg, _, err := Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("generated CUE does not load: %v\n%s", err, GenerateCUE(custom))
	}
	if *cfg != *custom {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *cfg, *custom)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "rtprov")

	path, written, err := CreateDefaultConfig(dir, false)
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if !written {
		t.Fatal("expected the file to be written")
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q", path)
	}

	if err := os.WriteFile(path, []byte(`runner: "virtual"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, written, err = CreateDefaultConfig(dir, false); err != nil || written {
		t.Fatalf("second call: written=%v err=%v, want existing file kept", written, err)
	}
	if got := testutil.MustReadFile(t, path); !strings.Contains(got, "virtual") {
		t.Errorf("existing config was overwritten: %q", got)
	}

	if _, written, err = CreateDefaultConfig(dir, true); err != nil || !written {
		t.Fatalf("forced call: written=%v err=%v", written, err)
	}
	if got := testutil.MustReadFile(t, path); !strings.Contains(got, `runner: "native"`) {
		t.Errorf("forced write did not restore defaults: %q", got)
	}
}

func TestConfigDir_FollowsUserConfigHome(t *testing.T) {
	// Not parallel: mutates the process environment.
	home := t.TempDir()
	restore := testutil.SetConfigHome(t, home)
	defer restore()

	want := filepath.Join(home, AppName)
	if goruntime.GOOS == "darwin" {
		want = filepath.Join(home, "Library", "Application Support", AppName)
	}
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}

	path, written, err := CreateDefaultConfig("", false)
	if err != nil || !written {
		t.Fatalf("CreateDefaultConfig() = (%q, %v, %v)", path, written, err)
	}
	if path != filepath.Join(want, ConfigFileName+"."+ConfigFileExt) {
		t.Errorf("path = %q", path)
	}

	cfg, loaded, err := Load(context.Background(), LoadOptions{WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded != path || cfg.RuntimesDir != DefaultRuntimesDir {
		t.Errorf("Load() = (%+v, %q), want the created default file", cfg, loaded)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"bad mirror", func(c *Config) { c.Mirrors.NodeJS = "nodejs.org/dist" }, ErrInvalidMirror},
		{"zero timeout", func(c *Config) { c.Settle.Timeout = 0 }, ErrInvalidDuration},
		{"negative interval", func(c *Config) { c.Settle.Interval = -time.Second }, ErrInvalidDuration},
		{"bad color scheme", func(c *Config) { c.UI.ColorScheme = "neon" }, ErrInvalidColorScheme},
		{"bad runner", func(c *Config) { c.Runner = "remote" }, runner.ErrInvalidMode},
		{"bad installer", func(c *Config) { c.Python.InstallerStyle = "msi" }, resolve.ErrInvalidInstallerStyle},
		{"bad version", func(c *Config) { c.Versions.Python = "3" }, manifest.ErrInvalidManifest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error should wrap ErrInvalidConfig")
			}
		})
	}
}

func TestConfig_Options(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Python.InstallerStyle = resolve.InstallerEmbed

	ro := cfg.ResolverOptions("arm64")
	if ro.InstallerStyle != resolve.InstallerEmbed || ro.Arch != resolve.ArchFromGOARCH("arm64") {
		t.Errorf("ResolverOptions() = %+v", ro)
	}
	so := cfg.SettleOptions()
	if so.Timeout != cfg.Settle.Timeout || so.Interval != cfg.Settle.Interval {
		t.Errorf("SettleOptions() = %+v", so)
	}
}
