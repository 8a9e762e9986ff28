// Package matfile reads numeric arrays out of MATLAB v7.3 files.
//
// A v7.3 MAT-file is an HDF5 container with a 512-byte user block. Each
// variable is a dataset at the root; a struct is a group whose fields are
// its children, so the variable "s" with structure path "a.b" lives at
// /s/a/b. MATLAB writes column-major data, which HDF5 reports with the
// dimensions reversed; Read undoes that so the array has the shape the user
// sees in MATLAB.
package matfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gonum.org/v1/hdf5"

	"github.com/JulieCB/tvb-root/internal/ndarray"
)

// Reader extracts a named array from a container file.
type Reader interface {
	Read(path, dataset, structurePath string) (*ndarray.Array, error)
}

var (
	// ErrNotFound means no variable or field exists at the requested location.
	ErrNotFound = errors.New("no such variable")
	// ErrNotNumeric means the location holds something other than a numeric array.
	ErrNotNumeric = errors.New("not a numeric array")
	// ErrUnsupportedVersion marks MAT files older than v7.3.
	ErrUnsupportedVersion = errors.New("unsupported MAT-file version")
)

// ParseError describes a file that could not yield the requested array.
type ParseError struct {
	Path          string
	Dataset       string
	StructurePath string
	Err           error
}

func (e *ParseError) Error() string {
	loc := e.Dataset
	if e.StructurePath != "" {
		loc += "." + e.StructurePath
	}
	return fmt.Sprintf("reading %q from %s: %v", loc, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// HDF5Reader reads MAT v7.3 files through the HDF5 C library.
type HDF5Reader struct{}

// NewReader returns the default MAT-file reader.
func NewReader() *HDF5Reader {
	return &HDF5Reader{}
}

// Read returns the array stored at dataset (and structurePath, a
// dot-separated field chain) as float64 in MATLAB orientation.
func (r *HDF5Reader) Read(path, dataset, structurePath string) (*ndarray.Array, error) {
	fail := func(err error) error {
		return &ParseError{Path: path, Dataset: dataset, StructurePath: structurePath, Err: err}
	}

	location, err := Location(dataset, structurePath)
	if err != nil {
		return nil, fail(err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fail(err)
	}
	if !hdf5.IsHDF5(path) {
		return nil, fail(sniffVersion(path))
	}

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fail(fmt.Errorf("opening HDF5 file: %w", err))
	}
	defer f.Close()

	if err := checkExists(f, location); err != nil {
		return nil, fail(err)
	}

	ds, err := f.OpenDataset(location)
	if err != nil {
		return nil, fail(fmt.Errorf("%s is a struct, not an array; name one of its fields: %w", location, ErrNotNumeric))
	}
	defer ds.Close()

	arr, err := readFloat64(ds)
	if err != nil {
		return nil, fail(err)
	}
	return arr, nil
}

// Location maps a variable name and a dotted structure path to an HDF5 path.
func Location(dataset, structurePath string) (string, error) {
	dataset = strings.TrimSpace(dataset)
	if dataset == "" {
		return "", errors.New("dataset name is empty")
	}
	parts := []string{dataset}
	if sp := strings.TrimSpace(structurePath); sp != "" {
		for _, field := range strings.Split(sp, ".") {
			field = strings.TrimSpace(field)
			if field == "" {
				return "", fmt.Errorf("structure path %q has an empty field", structurePath)
			}
			parts = append(parts, field)
		}
	}
	for _, p := range parts {
		if strings.Contains(p, "/") {
			return "", fmt.Errorf("name %q must not contain '/'", p)
		}
	}
	return "/" + strings.Join(parts, "/"), nil
}

// checkExists walks location one link at a time so a missing field is
// reported by name instead of as an HDF5 error stack.
func checkExists(f *hdf5.File, location string) error {
	parts := strings.Split(strings.TrimPrefix(location, "/"), "/")
	prefix := ""
	for i, p := range parts {
		prefix += "/" + p
		if !f.LinkExists(prefix) {
			if i == 0 {
				return fmt.Errorf("%w %q (file has: %s)", ErrNotFound, p, strings.Join(variables(f), ", "))
			}
			return fmt.Errorf("%w: field %q missing at %s", ErrNotFound, p, prefix)
		}
	}
	return nil
}

// variables lists the root-level names, skipping MATLAB's #refs# group.
func variables(f *hdf5.File) []string {
	n, err := f.NumObjects()
	if err != nil {
		return nil
	}
	var names []string
	for i := uint(0); i < n; i++ {
		name, err := f.ObjectNameByIndex(i)
		if err != nil || strings.HasPrefix(name, "#") {
			continue
		}
		names = append(names, name)
	}
	return names
}

func readFloat64(ds *hdf5.Dataset) (*ndarray.Array, error) {
	dtype, err := ds.Datatype()
	if err != nil {
		return nil, fmt.Errorf("reading datatype: %w", err)
	}
	class := dtype.Class()
	dtype.Close()
	if class != hdf5.T_FLOAT && class != hdf5.T_INTEGER {
		return nil, ErrNotNumeric
	}

	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("reading dimensions: %w", err)
	}

	shape := make([]int, len(dims))
	n := 1
	for i, d := range dims {
		shape[i] = int(d)
		n *= int(d)
	}
	buf := make([]float64, n)
	if n > 0 {
		if err := ds.Read(&buf); err != nil {
			return nil, fmt.Errorf("reading data: %w", err)
		}
	}

	arr, err := ndarray.New(shape, buf)
	if err != nil {
		return nil, err
	}
	return arr.Transpose(), nil
}

// sniffVersion explains why a file that is not HDF5 cannot be read.
func sniffVersion(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := make([]byte, 116)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("reading header: %w", err)
	}
	header = header[:n]
	if bytes.HasPrefix(header, []byte("MATLAB")) {
		text := string(bytes.TrimRight(header, "\x00 "))
		if i := strings.Index(text, ","); i > 0 {
			text = text[:i]
		}
		return fmt.Errorf("%w: %s; re-save it in MATLAB with save(..., '-v7.3')", ErrUnsupportedVersion, text)
	}
	return errors.New("not a MAT v7.3 (HDF5) file")
}
