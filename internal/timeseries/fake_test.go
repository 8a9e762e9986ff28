package timeseries

import (
	"errors"

	"github.com/JulieCB/tvb-root/internal/ndarray"
)

type fakeContainer struct {
	gid       string
	data      *ndarray.Array
	time      []float64
	attrs     map[string]any
	closed    bool
	promoted  bool
	discarded bool
}

func (c *fakeContainer) WriteData(arr *ndarray.Array) error { c.data = arr; return nil }
func (c *fakeContainer) WriteTime(t []float64) error        { c.time = t; return nil }

func (c *fakeContainer) DataShape() ([]int, error) {
	if c.data == nil {
		return nil, errors.New("no data")
	}
	return c.data.Shape(), nil
}

func (c *fakeContainer) SetAttribute(name string, value any) error {
	c.attrs[name] = value
	return nil
}

func (c *fakeContainer) Close() error   { c.closed = true; return nil }
func (c *fakeContainer) Promote() error { c.promoted = true; return nil }
func (c *fakeContainer) Discard() error { c.discarded = true; return nil }

type fakeFactory struct {
	created []*fakeContainer
	err     error
}

func (f *fakeFactory) Create(gid string) (Container, error) {
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeContainer{gid: gid, attrs: map[string]any{}}
	f.created = append(f.created, c)
	return c, nil
}
