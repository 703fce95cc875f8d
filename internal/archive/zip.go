// Package archive pulls PDF members out of ZIP archives.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrArchiveNotFound is returned when the archive path does not exist.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrInvalidArchive is returned when the file is not a readable ZIP archive.
	ErrInvalidArchive = errors.New("not a valid ZIP archive")

	// ErrNoPDFs is returned when the archive holds no PDF members.
	ErrNoPDFs = errors.New("no PDF files in archive")
)

// ArchiveError wraps errors with the operation and archive that failed.
type ArchiveError struct {
	Op      string
	Path    string
	Err     error
	Details string
}

func (e *ArchiveError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("archive: %s %s failed: %s: %v", e.Op, e.Path, e.Details, e.Err)
	}
	return fmt.Sprintf("archive: %s %s failed: %v", e.Op, e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

func (e *ArchiveError) Is(target error) bool { return errors.Is(e.Err, target) }

// IsPDF reports whether a member name has a .pdf extension in any casing.
func IsPDF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// memberBase flattens a member path to its final element. ZIP names use
// forward slashes, but archives built on Windows sometimes carry backslashes.
func memberBase(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}

func openPDFs(zipPath string, op string) (*zip.ReadCloser, []*zip.File, error) {
	if _, err := os.Stat(zipPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, &ArchiveError{Op: op, Path: zipPath, Err: ErrArchiveNotFound}
		}
		return nil, nil, &ArchiveError{Op: op, Path: zipPath, Err: err}
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, nil, &ArchiveError{Op: op, Path: zipPath, Err: ErrInvalidArchive, Details: err.Error()}
	}

	var members []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !IsPDF(f.Name) {
			continue
		}
		members = append(members, f)
	}

	if len(members) == 0 {
		r.Close()
		return nil, nil, &ArchiveError{Op: op, Path: zipPath, Err: ErrNoPDFs}
	}
	return r, members, nil
}

// ListPDFs returns the names of the PDF members in archive order. It fails
// with ErrArchiveNotFound, ErrInvalidArchive or ErrNoPDFs.
func ListPDFs(zipPath string) ([]string, error) {
	r, members, err := openPDFs(zipPath, "ListPDFs")
	if err != nil {
		return nil, err
	}
	defer r.Close()

	names := make([]string, 0, len(members))
	for _, f := range members {
		names = append(names, f.Name)
	}
	return names, nil
}

// ExtractPDFs writes every PDF member into destDir under its base name and
// returns the written paths in archive order. A member whose base name was
// already extracted is skipped with a warning.
func ExtractPDFs(zipPath, destDir string, log zerolog.Logger) ([]string, error) {
	const op = "ExtractPDFs"

	r, members, err := openPDFs(zipPath, op)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &ArchiveError{Op: op, Path: zipPath, Err: err, Details: "create " + destDir}
	}

	seen := make(map[string]string, len(members))
	var paths []string

	for _, f := range members {
		base := memberBase(f.Name)
		if first, dup := seen[base]; dup {
			log.Warn().
				Str("member", f.Name).
				Str("kept", first).
				Msg("Duplicate PDF name in archive, skipping")
			continue
		}
		seen[base] = f.Name

		target := filepath.Join(destDir, base)
		if err := extractFile(f, target); err != nil {
			return nil, &ArchiveError{Op: op, Path: zipPath, Err: err, Details: "extract " + f.Name}
		}

		log.Info().Str("member", f.Name).Str("path", target).Msg("Extracted PDF")
		paths = append(paths, target)
	}

	return paths, nil
}

func extractFile(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}
