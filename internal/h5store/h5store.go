// Package h5store keeps one HDF5 container per imported time series.
//
// Containers are written to <dir>/<gid>.h5.tmp and renamed to <gid>.h5 on
// Promote, so a failed import never leaves a container at its final path.
package h5store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/hdf5"

	"github.com/JulieCB/tvb-root/internal/ndarray"
	"github.com/JulieCB/tvb-root/internal/timeseries"
)

const (
	// DataDataset holds the canonical 4D array; metadata attributes hang off it.
	DataDataset = "data"
	// TimeDataset holds one time value per sample along axis 0 of data.
	TimeDataset = "time"

	ext        = ".h5"
	stagingExt = ".tmp"
)

// ErrNotFound is returned when no promoted container exists for a GID.
var ErrNotFound = errors.New("container not found")

// Storage is a directory of containers.
type Storage struct {
	dir string
}

// New returns a storage rooted at dir, creating it if needed.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Storage) Dir() string { return s.dir }

// Path returns the final container path for gid.
func (s *Storage) Path(gid string) string {
	return filepath.Join(s.dir, gid+ext)
}

// Exists reports whether a promoted container exists for gid.
func (s *Storage) Exists(gid string) bool {
	_, err := os.Stat(s.Path(gid))
	return err == nil
}

// Create satisfies timeseries.ContainerFactory.
func (s *Storage) Create(gid string) (timeseries.Container, error) {
	w, err := s.Stage(gid)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Stage creates a new container in its staging location.
func (s *Storage) Stage(gid string) (*Writer, error) {
	if gid == "" {
		return nil, errors.New("empty gid")
	}
	if s.Exists(gid) {
		return nil, fmt.Errorf("container %s already exists", gid)
	}
	staged := s.Path(gid) + stagingExt
	f, err := hdf5.CreateFile(staged, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", staged, err)
	}
	return &Writer{file: f, staged: staged, final: s.Path(gid)}, nil
}

// Remove deletes a promoted container.
func (s *Storage) Remove(gid string) error {
	if err := os.Remove(s.Path(gid)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, gid)
		}
		return err
	}
	return nil
}

// List returns the GIDs of all promoted containers, sorted.
func (s *Storage) List() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+ext))
	if err != nil {
		return nil, err
	}
	gids := make([]string, 0, len(matches))
	for _, m := range matches {
		gids = append(gids, strings.TrimSuffix(filepath.Base(m), ext))
	}
	sort.Strings(gids)
	return gids, nil
}

// Stale returns staging files left behind by interrupted imports.
func (s *Storage) Stale() ([]string, error) {
	return filepath.Glob(filepath.Join(s.dir, "*"+ext+stagingExt))
}

// Writer is a container being filled by one import.
type Writer struct {
	file   *hdf5.File
	data   *hdf5.Dataset
	staged string
	final  string

	attrs  []timeseries.Attribute
	closed bool
	done   bool
}

// WriteData stores the data array. It can only be called once.
func (w *Writer) WriteData(arr *ndarray.Array) error {
	if w.closed {
		return errors.New("container is closed")
	}
	if w.data != nil {
		return errors.New("data already written")
	}
	ds, err := writeDataset(w.file, DataDataset, arr.Shape(), arr.Data())
	if err != nil {
		return err
	}
	w.data = ds
	return nil
}

// WriteTime stores the time axis.
func (w *Writer) WriteTime(t []float64) error {
	if w.closed {
		return errors.New("container is closed")
	}
	ds, err := writeDataset(w.file, TimeDataset, []int{len(t)}, t)
	if err != nil {
		return err
	}
	return ds.Close()
}

// DataShape reads the data dimensions back from the file.
func (w *Writer) DataShape() ([]int, error) {
	if w.data == nil {
		return nil, errors.New("no data written")
	}
	return datasetShape(w.data)
}

// SetAttribute queues a scalar attribute for the data dataset. Setting a
// name twice keeps the last value. Attributes are written on Close.
func (w *Writer) SetAttribute(name string, value any) error {
	switch value.(type) {
	case string, float64, int64, int:
	default:
		return fmt.Errorf("attribute %s: unsupported type %T", name, value)
	}
	for i := range w.attrs {
		if w.attrs[i].Name == name {
			w.attrs[i].Value = value
			return nil
		}
	}
	w.attrs = append(w.attrs, timeseries.Attribute{Name: name, Value: value})
	return nil
}

// Close flushes attributes and releases the file. It is safe to call twice.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if w.data != nil {
		for _, a := range w.attrs {
			if err := writeAttribute(w.data, a.Name, a.Value); err != nil {
				errs = append(errs, err)
			}
		}
		errs = append(errs, w.data.Close())
	} else if len(w.attrs) > 0 {
		errs = append(errs, errors.New("attributes set but no data written"))
	}
	errs = append(errs, w.file.Close())
	return errors.Join(errs...)
}

// Promote closes the container and moves it to its final path.
func (w *Writer) Promote() error {
	if w.done {
		return errors.New("container already promoted or discarded")
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing container: %w", err)
	}
	if err := os.Rename(w.staged, w.final); err != nil {
		return fmt.Errorf("promoting container: %w", err)
	}
	w.done = true
	return nil
}

// Discard closes the container and deletes the staging file.
func (w *Writer) Discard() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.Close()
	if err := os.Remove(w.staged); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func writeDataset(f *hdf5.File, name string, shape []int, data []float64) (*hdf5.Dataset, error) {
	dims := make([]uint, len(shape))
	for i, d := range shape {
		dims[i] = uint(d)
	}
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, fmt.Errorf("dataspace for %s: %w", name, err)
	}
	defer space.Close()

	ds, err := f.CreateDataset(name, hdf5.T_NATIVE_DOUBLE, space)
	if err != nil {
		return nil, fmt.Errorf("creating dataset %s: %w", name, err)
	}
	if len(data) > 0 {
		buf := data
		if err := ds.Write(&buf); err != nil {
			ds.Close()
			return nil, fmt.Errorf("writing dataset %s: %w", name, err)
		}
	}
	return ds, nil
}

func writeAttribute(ds *hdf5.Dataset, name string, value any) error {
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return fmt.Errorf("attribute %s: %w", name, err)
	}
	defer space.Close()

	var dtype *hdf5.Datatype
	switch v := value.(type) {
	case string:
		dtype = hdf5.T_GO_STRING
	case float64:
		dtype = hdf5.T_NATIVE_DOUBLE
	case int64:
		dtype = hdf5.T_NATIVE_INT64
	case int:
		dtype = hdf5.T_NATIVE_INT64
		value = int64(v)
	}

	attr, err := ds.CreateAttribute(name, dtype, space)
	if err != nil {
		return fmt.Errorf("creating attribute %s: %w", name, err)
	}
	defer attr.Close()

	switch v := value.(type) {
	case string:
		err = attr.Write(&v, dtype)
	case float64:
		err = attr.Write(&v, dtype)
	case int64:
		err = attr.Write(&v, dtype)
	}
	if err != nil {
		return fmt.Errorf("writing attribute %s: %w", name, err)
	}
	return nil
}

func datasetShape(ds *hdf5.Dataset) ([]int, error) {
	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("reading dimensions: %w", err)
	}
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	return shape, nil
}
