// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"
)

// ArchiveEntry describes one member of a test archive. A name ending in "/"
// is a directory; a non-empty Link makes a symlink (tar only).
type ArchiveEntry struct {
	Name    string
	Content string
	Mode    int64
	Link    string
}

// Files converts a name->content map into regular-file entries sorted by name.
func Files(files map[string]string) []ArchiveEntry {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]ArchiveEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, ArchiveEntry{Name: name, Content: files[name], Mode: 0o644})
	}
	return entries
}

// BuildZip returns a zip archive containing entries.
func BuildZip(t testing.TB, entries []ArchiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		mode := e.Mode
		if mode == 0 {
			mode = 0o644
		}
		hdr.SetMode(fs.FileMode(mode).Perm())
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("zip header %s: %v", e.Name, err)
		}
		if strings.HasSuffix(e.Name, "/") {
			continue
		}
		if _, err := io.WriteString(w, e.Content); err != nil {
			t.Fatalf("zip write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

// BuildTarGz returns a gzip-compressed tarball containing entries.
func BuildTarGz(t testing.TB, entries []ArchiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	writeTar(t, gz, entries)
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	return buf.Bytes()
}

// BuildTarXz returns an xz-compressed tarball containing entries.
func BuildTarXz(t testing.TB, entries []ArchiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("creating xz writer: %v", err)
	}
	writeTar(t, xw, entries)
	if err := xw.Close(); err != nil {
		t.Fatalf("closing xz: %v", err)
	}
	return buf.Bytes()
}

func writeTar(t testing.TB, w io.Writer, entries []ArchiveEntry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: e.Mode}
		switch {
		case strings.HasSuffix(e.Name, "/"):
			hdr.Typeflag = tar.TypeDir
			if hdr.Mode == 0 {
				hdr.Mode = 0o755
			}
		case e.Link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Link
			hdr.Mode = 0o777
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Content))
			if hdr.Mode == 0 {
				hdr.Mode = 0o644
			}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("tar header %s: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := io.WriteString(tw, e.Content); err != nil {
				t.Fatalf("tar write %s: %v", e.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
}
