// Package metadata removes document-level metadata from PDFs.
package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	// ErrStripFailed is returned when the document cannot be read or rewritten.
	ErrStripFailed = errors.New("metadata strip failed")

	// ErrReadFailed is returned when the document metadata cannot be read.
	ErrReadFailed = errors.New("metadata read failed")
)

// MetadataError wraps errors with the operation and file that failed.
type MetadataError struct {
	Op      string
	Err     error
	Details string
}

func (e *MetadataError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("metadata: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("metadata: %s failed: %v", e.Op, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

func (e *MetadataError) Is(target error) bool { return errors.Is(e.Err, target) }

// Info is the metadata a document carries.
type Info struct {
	// Fields holds the document information dictionary entries.
	Fields map[string]string
	// XMP is set when the catalog references an XMP metadata stream.
	XMP bool
}

// Keys returns the information dictionary keys in sorted order.
func (i Info) Keys() []string {
	keys := make([]string, 0, len(i.Fields))
	for k := range i.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stripper removes metadata in place. It satisfies the workflow's
// MetadataStripper step.
type Stripper struct{}

func (Stripper) Strip(path string) error { return Strip(path) }

// Strip drops the information dictionary and the catalog's XMP stream. The
// result is written next to the input and renamed over it, so a failure
// leaves the original untouched.
//
// The PDF writer stamps a fresh Producer and timestamps on every rewrite;
// none of the original entries survive.
func Strip(path string) error {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return &MetadataError{Op: "Strip", Err: ErrStripFailed, Details: fmt.Sprintf("read %s: %v", path, err)}
	}

	ctx.Info = nil
	root, err := ctx.Catalog()
	if err != nil {
		return &MetadataError{Op: "Strip", Err: ErrStripFailed, Details: fmt.Sprintf("catalog: %v", err)}
	}
	root.Delete("Metadata")

	tmp, err := os.CreateTemp(filepath.Dir(path), ".strip-*.pdf")
	if err != nil {
		return &MetadataError{Op: "Strip", Err: ErrStripFailed, Details: err.Error()}
	}
	tmpName := tmp.Name()
	tmp.Close()

	if err := api.WriteContextFile(ctx, tmpName); err != nil {
		os.Remove(tmpName)
		return &MetadataError{Op: "Strip", Err: ErrStripFailed, Details: fmt.Sprintf("write: %v", err)}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &MetadataError{Op: "Strip", Err: ErrStripFailed, Details: fmt.Sprintf("replace %s: %v", path, err)}
	}
	return nil
}

// Read returns the metadata of the document at path.
func Read(path string) (info Info, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Info{}, &MetadataError{Op: "Read", Err: ErrReadFailed, Details: err.Error()}
	}
	defer f.Close()

	defer func() {
		if rec := recover(); rec != nil {
			info = Info{}
			err = &MetadataError{Op: "Read", Err: ErrReadFailed, Details: fmt.Sprint(rec)}
		}
	}()

	info.Fields = make(map[string]string)
	trailer := r.Trailer()

	dict := trailer.Key("Info")
	for _, k := range dict.Keys() {
		v := dict.Key(k)
		if v.Kind() == pdf.String {
			info.Fields[k] = v.Text()
		} else {
			info.Fields[k] = v.String()
		}
	}

	info.XMP = !trailer.Key("Root").Key("Metadata").IsNull()
	return info, nil
}
