// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/rtprov/pkg/platform"

	"github.com/ulikunitz/xz"
)

// maxEntryBytes is the upper bound on a single extracted file (1 GiB).
// Prevents decompression bombs from filling the disk.
const maxEntryBytes = 1 << 30

var (
	// ErrUnsupportedFormat indicates the requested archive format has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrCorruptArchive indicates the archive could not be decoded.
	ErrCorruptArchive = errors.New("corrupt archive")
	// ErrUnsafePath indicates an entry would be written outside the destination.
	ErrUnsafePath = errors.New("archive entry escapes destination")
	// ErrEntryTooLarge indicates an entry exceeded maxEntryBytes.
	ErrEntryTooLarge = errors.New("archive entry too large")
	// ErrFilesystem indicates an extracted entry could not be written.
	ErrFilesystem = errors.New("cannot write extracted entry")
)

// ExtractionError describes a failed extraction.
type ExtractionError struct {
	Archive string
	Format  platform.ArchiveFormat
	Entry   string
	Err     error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("extracting %s (%s) entry %q: %v", filepath.Base(e.Archive), e.Format, e.Entry, e.Err)
	}
	return fmt.Sprintf("extracting %s (%s): %v", filepath.Base(e.Archive), e.Format, e.Err)
}

// Unwrap returns the classified cause.
func (e *ExtractionError) Unwrap() error { return e.Err }

// Extract unpacks the archive at src into destDir according to format.
// destDir is created if missing; existing files are overwritten so a re-run
// converges to the same tree. Every write goes through an os.Root opened on
// destDir, so no entry (or chain of symlink entries) can land outside it.
// Any failure is returned as *ExtractionError.
func Extract(src, destDir string, format platform.ArchiveFormat) error {
	wrap := func(entry string, err error) error {
		if err == nil {
			return nil
		}
		var ee *ExtractionError
		if errors.As(err, &ee) {
			return err
		}
		return &ExtractionError{Archive: src, Format: format, Entry: entry, Err: err}
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return wrap("", fmt.Errorf("%w: %w", ErrFilesystem, err))
	}
	d, err := openDest(destDir)
	if err != nil {
		return wrap("", err)
	}
	defer func() { _ = d.root.Close() }()

	switch format {
	case platform.ArchiveZip:
		return wrap("", extractZip(src, d, format))
	case platform.ArchiveTarGz:
		return wrap("", withFile(src, func(f *os.File) error {
			gz, err := gzip.NewReader(f)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrCorruptArchive, err)
			}
			defer func() { _ = gz.Close() }() // read-only decompressor
			return extractTar(gz, src, d, format)
		}))
	case platform.ArchiveTarXz:
		return wrap("", withFile(src, func(f *os.File) error {
			xr, err := xz.NewReader(f)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrCorruptArchive, err)
			}
			return extractTar(xr, src, d, format)
		}))
	}
	return wrap("", fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format)))
}

func withFile(path string, fn func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}
	defer func() { _ = f.Close() }() // read-only file handle
	return fn(f)
}

// dest is an extraction target. dir is the destination with symlinks
// resolved; root confines every write beneath it.
type dest struct {
	dir  string
	root *os.Root
}

func openDest(destDir string) (*dest, error) {
	dir, err := filepath.EvalSymlinks(destDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}
	return &dest{dir: dir, root: root}, nil
}

func extractZip(src string, d *dest, format platform.ArchiveFormat) error {
	zr, err := zip.OpenReader(src)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = zr.Close()
		return fmt.Errorf("%w: %w", ErrUnsafePath, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}
	defer func() { _ = zr.Close() }() // read-only archive

	for _, zf := range zr.File {
		name, err := entryPath(zf.Name)
		if err != nil {
			return &ExtractionError{Archive: src, Format: format, Entry: zf.Name, Err: err}
		}

		if zf.FileInfo().IsDir() {
			if err := d.mkdirAll(name); err != nil {
				return &ExtractionError{Archive: src, Format: format, Entry: zf.Name, Err: err}
			}
			continue
		}

		if err := func() error {
			rc, err := zf.Open()
			if err != nil {
				return fmt.Errorf("%w: %w", ErrCorruptArchive, err)
			}
			defer func() { _ = rc.Close() }() // read-only entry
			return d.writeFile(name, rc, zf.Mode().Perm())
		}(); err != nil {
			return &ExtractionError{Archive: src, Format: format, Entry: zf.Name, Err: err}
		}
	}
	return nil
}

func extractTar(r io.Reader, src string, d *dest, format platform.ArchiveFormat) error {
	tr := tar.NewReader(r)
	entries := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		// Insecure names are rejected by entryPath below.
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("%w: reading tar entry: %w", ErrCorruptArchive, err)
		}
		entries++

		name, err := entryPath(hdr.Name)
		if err != nil {
			return &ExtractionError{Archive: src, Format: format, Entry: hdr.Name, Err: err}
		}

		var entryErr error
		switch hdr.Typeflag {
		case tar.TypeDir:
			entryErr = d.mkdirAll(name)
		case tar.TypeReg:
			entryErr = d.writeFile(name, tr, fs.FileMode(hdr.Mode).Perm())
		case tar.TypeSymlink:
			entryErr = d.symlink(name, hdr.Linkname)
		case tar.TypeLink:
			entryErr = d.hardlink(name, hdr.Linkname)
		default:
			// Device nodes, FIFOs and PAX metadata entries carry nothing the
			// runtime needs.
			continue
		}
		if entryErr != nil {
			return &ExtractionError{Archive: src, Format: format, Entry: hdr.Name, Err: entryErr}
		}
	}
	if entries == 0 {
		return fmt.Errorf("%w: archive has no entries", ErrCorruptArchive)
	}
	return nil
}

func (d *dest) mkdirAll(name string) error {
	if name == "." {
		return nil
	}
	if err := d.root.MkdirAll(name, 0o755); err != nil {
		return d.fsError(name, err)
	}
	return nil
}

// writeFile copies r into name, replacing any existing file.
func (d *dest) writeFile(name string, r io.Reader, perm fs.FileMode) (err error) {
	if err := d.mkdirAll(filepath.Dir(name)); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	// Drop an existing symlink instead of writing through it.
	if info, statErr := d.root.Lstat(name); statErr == nil && info.Mode()&fs.ModeSymlink != 0 {
		_ = d.root.Remove(name)
	}

	out, err := d.root.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o200)
	if err != nil {
		return d.fsError(name, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrFilesystem, closeErr)
		}
	}()

	n, err := io.Copy(out, io.LimitReader(r, maxEntryBytes+1))
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return fmt.Errorf("%w: %w", ErrFilesystem, err)
		}
		return fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}
	if n > maxEntryBytes {
		return ErrEntryTooLarge
	}
	return nil
}

// symlink creates name -> linkname. The link is resolved against the
// physical parent directory, so a parent that is itself a symlink entry
// cannot be used to point past the destination.
func (d *dest) symlink(name, linkname string) error {
	parent := filepath.Dir(name)
	if err := d.mkdirAll(parent); err != nil {
		return err
	}
	realParent, err := filepath.EvalSymlinks(filepath.Join(d.dir, parent))
	if err != nil {
		return d.fsError(name, err)
	}
	resolved := filepath.FromSlash(linkname)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(realParent, resolved)
	}
	if !within(d.dir, realParent) || !within(d.dir, resolved) {
		return fmt.Errorf("%w: symlink to %q", ErrUnsafePath, linkname)
	}
	_ = d.root.Remove(name)
	if err := d.root.Symlink(linkname, name); err != nil {
		return d.fsError(name, err)
	}
	return nil
}

func (d *dest) hardlink(name, linkname string) error {
	source, err := entryPath(linkname)
	if err != nil {
		return err
	}
	if err := d.mkdirAll(filepath.Dir(name)); err != nil {
		return err
	}
	_ = d.root.Remove(name)
	if err := d.root.Link(source, name); err != nil {
		return d.fsError(name, err)
	}
	return nil
}

// fsError classifies a failed write. The root refuses paths whose
// resolution leaves the destination; those are reported as ErrUnsafePath.
func (d *dest) fsError(name string, err error) error {
	for _, p := range []string{name, filepath.Dir(name)} {
		resolved, evalErr := filepath.EvalSymlinks(filepath.Join(d.dir, p))
		if evalErr != nil {
			continue
		}
		if !within(d.dir, resolved) {
			return fmt.Errorf("%w: %q", ErrUnsafePath, filepath.ToSlash(name))
		}
		break
	}
	return fmt.Errorf("%w: %w", ErrFilesystem, err)
}

// entryPath turns an archive entry name into a cleaned path relative to the
// destination, rejecting absolute names and names that climb out of it.
func entryPath(name string) (string, error) {
	clean := filepath.FromSlash(name)
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	clean = filepath.Clean(clean)
	if !filepath.IsLocal(clean) && clean != "." {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return clean, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
