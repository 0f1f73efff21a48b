// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Manifest)
		wantBad  Name
		wantPass bool
	}{
		{name: "default", mutate: func(*Manifest) {}, wantPass: true},
		{name: "leading v accepted", mutate: func(m *Manifest) { m.NodeJS = "v18.16.0" }, wantPass: true},
		{name: "prerelease accepted", mutate: func(m *Manifest) { m.Python = "3.13.0-rc.1" }, wantPass: true},
		{name: "missing version", mutate: func(m *Manifest) { m.Jupyter = "" }, wantBad: Jupyter},
		{name: "latest rejected", mutate: func(m *Manifest) { m.RobotFramework = "latest" }, wantBad: RobotFramework},
		{name: "partial version rejected", mutate: func(m *Manifest) { m.Python = "3.11" }, wantBad: Python},
		{name: "range rejected", mutate: func(m *Manifest) { m.NodeJS = ">=18" }, wantBad: NodeJS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := Default()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantPass {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var invalid *InvalidManifestError
			if !errors.As(err, &invalid) {
				t.Fatalf("Validate() = %v, want *InvalidManifestError", err)
			}
			if !errors.Is(err, ErrInvalidManifest) {
				t.Error("error does not wrap ErrInvalidManifest")
			}
			if len(invalid.Fields) != 1 || invalid.Fields[0].Runtime != tt.wantBad {
				t.Errorf("Fields = %+v, want single entry for %s", invalid.Fields, tt.wantBad)
			}
		})
	}
}

func TestNormalizeAndMerge(t *testing.T) {
	t.Parallel()

	m := Manifest{Python: " v3.12.1 ", NodeJS: "v20.0.0"}.Normalize().Merge(Default())
	want := Manifest{Python: "3.12.1", NodeJS: "20.0.0", RobotFramework: "6.1.1", Jupyter: "7.0.0"}
	if m != want {
		t.Errorf("got %+v, want %+v", m, want)
	}
}

func TestVersion_UnknownName(t *testing.T) {
	t.Parallel()

	if got := Default().Version(Name("ruby")); got != "" {
		t.Errorf("Version(ruby) = %q, want empty", got)
	}
}

func TestLoadFile_PackageJSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "package.json", `{
  "name": "desktop-app",
  "version": "1.4.0",
  "runtimeVersions": {
    "python": "3.11.0",
    "nodejs": "18.16.0",
    "robotframework": "6.1.1",
    "jupyter": "7.0.0"
  }
}`)

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() unexpected error: %v", err)
	}
	if got != Default() {
		t.Errorf("LoadFile() = %+v, want %+v", got, Default())
	}
}

func TestLoadFile_FlatJSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "versions.json", `{"python": "3.12.0"}`)
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() unexpected error: %v", err)
	}
	if got.Python != "3.12.0" || got.NodeJS != "" {
		t.Errorf("LoadFile() = %+v", got)
	}
}

func TestLoadFile_TOML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "runtimes.toml", `
[runtimeVersions]
python = "3.11.0"
nodejs = "20.11.1"
robotframework = "7.0.0"
jupyter = "7.1.2"
`)

	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() unexpected error: %v", err)
	}
	want := Manifest{Python: "3.11.0", NodeJS: "20.11.1", RobotFramework: "7.0.0", Jupyter: "7.1.2"}
	if got != want {
		t.Errorf("LoadFile() = %+v, want %+v", got, want)
	}
}

func TestLoadFile_YAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
		want    Manifest
	}{
		{
			name: "runtimeVersions mapping",
			file: "app.yaml",
			content: `name: app
runtimeVersions:
  python: "3.12.4"
  nodejs: "20.11.1"
`,
			want: Manifest{Python: "3.12.4", NodeJS: "20.11.1"},
		},
		{
			name:    "flat keys",
			file:    "runtimes.yml",
			content: "robotframework: 7.0.0\njupyter: 7.1.2\n",
			want:    Manifest{RobotFramework: "7.0.0", Jupyter: "7.1.2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadFile(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadFile() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("LoadFile() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(writeFile(t, "versions.ini", "python=3.11.0")); !errors.Is(err, ErrUnsupportedManifestFormat) {
		t.Errorf("ini manifest error = %v, want ErrUnsupportedManifestFormat", err)
	}
	if _, err := LoadFile(writeFile(t, "broken.yaml", "runtimeVersions: [")); err == nil {
		t.Error("malformed YAML returned nil error")
	}
	if _, err := LoadFile(writeFile(t, "broken.json", "{")); err == nil {
		t.Error("malformed JSON returned nil error")
	}
	if _, err := LoadFile(writeFile(t, "broken.toml", "python = ")); err == nil {
		t.Error("malformed TOML returned nil error")
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file returned nil error")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}
