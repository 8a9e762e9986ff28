package matfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"

	"github.com/JulieCB/tvb-root/internal/ndarray"
)

// writeMatrix stores m at location the way MATLAB does: HDF5 dimensions
// reversed, elements in column-major order.
func writeMatrix(t *testing.T, f *hdf5.File, location string, m *ndarray.Array) {
	t.Helper()
	stored := m.Transpose()
	dims := make([]uint, stored.NDim())
	for i, d := range stored.Shape() {
		dims[i] = uint(d)
	}
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	require.NoError(t, err)
	defer space.Close()

	ds, err := f.CreateDataset(location, hdf5.T_NATIVE_DOUBLE, space)
	require.NoError(t, err)
	defer ds.Close()

	data := append([]float64(nil), stored.Data()...)
	require.NoError(t, ds.Write(&data))
}

func matrix(t *testing.T, rows, cols int) *ndarray.Array {
	t.Helper()
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i) + 0.5
	}
	a, err := ndarray.New([]int{rows, cols}, data)
	require.NoError(t, err)
	return a
}

// fixture writes a file with a top-level "ts" variable and a struct
// "exp" holding "exp.run1.eeg".
func fixture(t *testing.T) (string, *ndarray.Array, *ndarray.Array) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.mat")
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	defer f.Close()

	top := matrix(t, 10, 5)
	writeMatrix(t, f, "ts", top)

	g, err := f.CreateGroup("exp")
	require.NoError(t, err)
	defer g.Close()
	run, err := g.CreateGroup("run1")
	require.NoError(t, err)
	defer run.Close()

	nested := matrix(t, 6, 3)
	writeMatrix(t, f, "/exp/run1/eeg", nested)
	return path, top, nested
}

func TestLocation(t *testing.T) {
	tests := []struct {
		dataset, path, want string
		wantErr             bool
	}{
		{"ts", "", "/ts", false},
		{" ts ", "a.b", "/ts/a/b", false},
		{"ts", "a", "/ts/a", false},
		{"", "a", "", true},
		{"ts", "a..b", "", true},
		{"ts", "a/b", "", true},
	}
	for _, tt := range tests {
		got, err := Location(tt.dataset, tt.path)
		if tt.wantErr {
			assert.Error(t, err, "%q %q", tt.dataset, tt.path)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestRead_TopLevel(t *testing.T) {
	path, want, _ := fixture(t)
	got, err := NewReader().Read(path, "ts", "")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 5}, got.Shape())
	assert.True(t, got.Equal(want))
}

func TestRead_StructurePath(t *testing.T) {
	path, _, want := fixture(t)
	got, err := NewReader().Read(path, "exp", "run1.eeg")
	require.NoError(t, err)
	assert.Equal(t, []int{6, 3}, got.Shape())
	assert.True(t, got.Equal(want))
}

func TestRead_Errors(t *testing.T) {
	path, _, _ := fixture(t)
	r := NewReader()

	t.Run("missing variable", func(t *testing.T) {
		_, err := r.Read(path, "nope", "")
		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "nope", pe.Dataset)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "ts")
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := r.Read(path, "exp", "run2.eeg")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "run2")
	})

	t.Run("struct without field", func(t *testing.T) {
		_, err := r.Read(path, "exp", "run1")
		assert.ErrorIs(t, err, ErrNotNumeric)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := r.Read(filepath.Join(t.TempDir(), "absent.mat"), "ts", "")
		var pe *ParseError
		assert.True(t, errors.As(err, &pe))
	})

	t.Run("empty dataset name", func(t *testing.T) {
		_, err := r.Read(path, "", "")
		var pe *ParseError
		assert.True(t, errors.As(err, &pe))
	})
}

func TestRead_MatV5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.mat")
	header := make([]byte, 128)
	copy(header, "MATLAB 5.0 MAT-file, Platform: GLNXA64, Created on: Mon Jan  1 00:00:00 2024")
	require.NoError(t, os.WriteFile(path, header, 0o644))

	_, err := NewReader().Read(path, "ts", "")
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Contains(t, err.Error(), "-v7.3")
	assert.Contains(t, err.Error(), "MATLAB 5.0 MAT-file")
}

func TestRead_NotMat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	_, err := NewReader().Read(path, "ts", "")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, err.Error(), "not a MAT v7.3")
}
