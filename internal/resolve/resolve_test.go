// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/invowk/rtprov/internal/manifest"
	"github.com/invowk/rtprov/pkg/platform"
)

func TestResolve_PythonPlatformAsymmetry(t *testing.T) {
	t.Parallel()

	for _, style := range []InstallerStyle{InstallerExe, InstallerEmbed} {
		r := New(manifest.Default(), Options{InstallerStyle: style})
		for _, p := range platform.All() {
			spec, err := r.Resolve(manifest.Python, p)
			if p.IsPOSIX() {
				if !errors.Is(err, ErrNotApplicable) {
					t.Errorf("%s/%s: error = %v, want ErrNotApplicable", style, p, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("%s/%s: unexpected error: %v", style, p, err)
			}
			if spec.URL == "" || spec.FileName == "" {
				t.Errorf("%s/%s: empty download spec %+v", style, p, spec)
			}
		}
	}
}

func TestResolve_PythonWindowsURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		style      InstallerStyle
		wantURL    string
		wantFormat platform.ArchiveFormat
	}{
		{
			style:   InstallerExe,
			wantURL: "https://www.python.org/ftp/python/3.11.0/python-3.11.0-amd64.exe",
		},
		{
			style:      InstallerEmbed,
			wantURL:    "https://www.python.org/ftp/python/3.11.0/python-3.11.0-embed-amd64.zip",
			wantFormat: platform.ArchiveZip,
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			t.Parallel()

			spec, err := New(manifest.Default(), Options{InstallerStyle: tt.style}).Resolve(manifest.Python, platform.Windows)
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if spec.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", spec.URL, tt.wantURL)
			}
			if spec.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", spec.Format, tt.wantFormat)
			}
		})
	}
}

func TestResolve_NodeArchivePerPlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		platform platform.ID
		wantFile string
		wantRoot string
		format   platform.ArchiveFormat
	}{
		{platform.Windows, "node-v18.16.0-win-x64.zip", "node-v18.16.0-win-x64", platform.ArchiveZip},
		{platform.MacOS, "node-v18.16.0-darwin-x64.tar.gz", "node-v18.16.0-darwin-x64", platform.ArchiveTarGz},
		{platform.Linux, "node-v18.16.0-linux-x64.tar.xz", "node-v18.16.0-linux-x64", platform.ArchiveTarXz},
	}

	r := New(manifest.Default(), Options{})
	for _, tt := range tests {
		spec, err := r.Resolve(manifest.NodeJS, tt.platform)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.platform, err)
		}
		if spec.FileName != tt.wantFile {
			t.Errorf("%s: FileName = %q, want %q", tt.platform, spec.FileName, tt.wantFile)
		}
		if spec.Format != tt.format {
			t.Errorf("%s: Format = %q, want %q", tt.platform, spec.Format, tt.format)
		}
		if got := ArchiveRoot(spec); got != tt.wantRoot {
			t.Errorf("%s: ArchiveRoot = %q, want %q", tt.platform, got, tt.wantRoot)
		}
		if want := "https://nodejs.org/dist/v18.16.0/" + tt.wantFile; spec.URL != want {
			t.Errorf("%s: URL = %q, want %q", tt.platform, spec.URL, want)
		}
	}
}

func TestResolve_FileNameIsStable(t *testing.T) {
	t.Parallel()

	r := New(manifest.Default(), Options{InstallerStyle: InstallerEmbed})
	for _, p := range platform.All() {
		for _, name := range []manifest.Name{manifest.Python, manifest.NodeJS} {
			first, err := r.Resolve(name, p)
			if errors.Is(err, ErrNotApplicable) {
				continue
			}
			if err != nil {
				t.Fatalf("%s/%s: %v", name, p, err)
			}
			for range 3 {
				again, err := r.Resolve(name, p)
				if err != nil {
					t.Fatalf("%s/%s: %v", name, p, err)
				}
				if again != first {
					t.Errorf("%s/%s: resolution changed between calls: %+v vs %+v", name, p, first, again)
				}
			}
		}
	}
}

func TestResolve_MirrorsAndArch(t *testing.T) {
	t.Parallel()

	r := New(manifest.Default(), Options{
		NodeMirror:   "http://127.0.0.1:8080/node/",
		PythonMirror: "http://127.0.0.1:8080/python/",
		Arch:         ArchARM64,
	})

	node, err := r.Resolve(manifest.NodeJS, platform.MacOS)
	if err != nil {
		t.Fatalf("Resolve(nodejs) unexpected error: %v", err)
	}
	if want := "http://127.0.0.1:8080/node/v18.16.0/node-v18.16.0-darwin-arm64.tar.gz"; node.URL != want {
		t.Errorf("URL = %q, want %q", node.URL, want)
	}

	py, err := r.Resolve(manifest.Python, platform.Windows)
	if err != nil {
		t.Fatalf("Resolve(python) unexpected error: %v", err)
	}
	if !strings.HasPrefix(py.URL, "http://127.0.0.1:8080/python/3.11.0/") {
		t.Errorf("URL = %q, want mirror prefix", py.URL)
	}
}

func TestResolve_PackagesHaveNoArtifact(t *testing.T) {
	t.Parallel()

	r := New(manifest.Default(), Options{})
	for _, name := range []manifest.Name{manifest.RobotFramework, manifest.Jupyter} {
		if _, err := r.Resolve(name, platform.Linux); !errors.Is(err, ErrUnknownRuntime) {
			t.Errorf("Resolve(%s) error = %v, want ErrUnknownRuntime", name, err)
		}
	}
	if _, err := r.Resolve(manifest.NodeJS, platform.ID("solaris")); !errors.Is(err, platform.ErrUnsupportedPlatform) {
		t.Errorf("unsupported platform error = %v", err)
	}
}

func TestFileNameFromURL(t *testing.T) {
	t.Parallel()

	got, err := FileNameFromURL("https://example.com/dist/node.tar.xz?token=abc#frag")
	if err != nil || got != "node.tar.xz" {
		t.Errorf("FileNameFromURL() = %q, %v", got, err)
	}
	if _, err := FileNameFromURL("https://example.com/"); err == nil {
		t.Error("FileNameFromURL(root) returned nil error")
	}
}

func TestInstallerStyleValidate(t *testing.T) {
	t.Parallel()

	for _, ok := range []InstallerStyle{"", InstallerExe, InstallerEmbed} {
		if err := ok.Validate(); err != nil {
			t.Errorf("InstallerStyle(%q).Validate() = %v", ok, err)
		}
	}
	if err := InstallerStyle("msi").Validate(); !errors.Is(err, ErrInvalidInstallerStyle) {
		t.Errorf("InstallerStyle(msi).Validate() = %v", err)
	}
	if ArchFromGOARCH("arm64") != ArchARM64 || ArchFromGOARCH("amd64") != ArchX64 {
		t.Error("ArchFromGOARCH mapping is wrong")
	}
}
