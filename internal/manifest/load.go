// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// maxManifestBytes is the upper bound on a manifest file read into memory.
const maxManifestBytes = 1 << 20

// ErrUnsupportedManifestFormat is returned for manifest files that are not
// JSON, TOML or YAML.
var ErrUnsupportedManifestFormat = errors.New("unsupported manifest file format")

// projectFile is the subset of a project manifest (package.json or a TOML
// equivalent) that carries runtime versions.
type projectFile struct {
	RuntimeVersions *Manifest `json:"runtimeVersions" toml:"runtimeVersions" yaml:"runtimeVersions"`
}

// LoadFile reads a manifest from a project file. JSON files are read the way
// package.json is laid out (a "runtimeVersions" object); TOML files use a
// [runtimeVersions] table and YAML files a runtimeVersions mapping. In every
// format the four keys may also appear at the
// top level. Missing entries are left empty so the caller can Merge defaults.
func LoadFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}
	if len(data) > maxManifestBytes {
		return Manifest{}, fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxManifestBytes)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(data, path)
	case ".toml":
		return parseTOML(data, path)
	case ".yaml", ".yml":
		return parseYAML(data, path)
	}
	return Manifest{}, fmt.Errorf("%w: %s (expected .json, .toml or .yaml)", ErrUnsupportedManifestFormat, path)
}

func parseJSON(data []byte, path string) (Manifest, error) {
	var pf projectFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	if pf.RuntimeVersions != nil {
		return *pf.RuntimeVersions, nil
	}

	var flat Manifest
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&flat); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return flat, nil
}

func parseTOML(data []byte, path string) (Manifest, error) {
	var pf projectFile
	if err := toml.Unmarshal(data, &pf); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	if pf.RuntimeVersions != nil {
		return *pf.RuntimeVersions, nil
	}

	var flat Manifest
	if err := toml.Unmarshal(data, &flat); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return flat, nil
}

func parseYAML(data []byte, path string) (Manifest, error) {
	var pf projectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	if pf.RuntimeVersions != nil {
		return *pf.RuntimeVersions, nil
	}

	var flat Manifest
	if err := yaml.Unmarshal(data, &flat); err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return flat, nil
}
