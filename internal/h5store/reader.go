package h5store

import (
	"fmt"

	"gonum.org/v1/hdf5"

	"github.com/JulieCB/tvb-root/internal/ndarray"
)

// Container is a promoted container opened for reading.
type Container struct {
	file *hdf5.File
	data *hdf5.Dataset
}

// Open opens the promoted container for gid read-only.
func (s *Storage) Open(gid string) (*Container, error) {
	if !s.Exists(gid) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, gid)
	}
	f, err := hdf5.OpenFile(s.Path(gid), hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("opening container %s: %w", gid, err)
	}
	ds, err := f.OpenDataset(DataDataset)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("container %s has no %s dataset: %w", gid, DataDataset, err)
	}
	return &Container{file: f, data: ds}, nil
}

// Shape returns the data dimensions.
func (c *Container) Shape() ([]int, error) {
	return datasetShape(c.data)
}

// Data reads the whole data array.
func (c *Container) Data() (*ndarray.Array, error) {
	shape, err := c.Shape()
	if err != nil {
		return nil, err
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	buf := make([]float64, n)
	if n > 0 {
		if err := c.data.Read(&buf); err != nil {
			return nil, fmt.Errorf("reading data: %w", err)
		}
	}
	return ndarray.New(shape, buf)
}

// Time reads the time axis.
func (c *Container) Time() ([]float64, error) {
	ds, err := c.file.OpenDataset(TimeDataset)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", TimeDataset, err)
	}
	defer ds.Close()
	shape, err := datasetShape(ds)
	if err != nil {
		return nil, err
	}
	if len(shape) != 1 {
		return nil, fmt.Errorf("%s has %d dimensions, want 1", TimeDataset, len(shape))
	}
	buf := make([]float64, shape[0])
	if len(buf) > 0 {
		if err := ds.Read(&buf); err != nil {
			return nil, fmt.Errorf("reading %s: %w", TimeDataset, err)
		}
	}
	return buf, nil
}

// StringAttribute reads a string attribute of the data dataset.
func (c *Container) StringAttribute(name string) (string, error) {
	attr, err := c.data.OpenAttribute(name)
	if err != nil {
		return "", fmt.Errorf("opening attribute %s: %w", name, err)
	}
	defer attr.Close()
	var s string
	if err := attr.Read(&s, hdf5.T_GO_STRING); err != nil {
		return "", fmt.Errorf("reading attribute %s: %w", name, err)
	}
	return s, nil
}

// FloatAttribute reads a float64 attribute of the data dataset.
func (c *Container) FloatAttribute(name string) (float64, error) {
	attr, err := c.data.OpenAttribute(name)
	if err != nil {
		return 0, fmt.Errorf("opening attribute %s: %w", name, err)
	}
	defer attr.Close()
	var v float64
	if err := attr.Read(&v, hdf5.T_NATIVE_DOUBLE); err != nil {
		return 0, fmt.Errorf("reading attribute %s: %w", name, err)
	}
	return v, nil
}

// Close releases the file.
func (c *Container) Close() error {
	c.data.Close()
	return c.file.Close()
}
