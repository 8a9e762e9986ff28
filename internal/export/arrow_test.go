package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulieCB/tvb-root/internal/ndarray"
	"github.com/JulieCB/tvb-root/internal/store"
)

func series(t *testing.T, samples, channels int) (*store.TimeSeriesIndex, *ndarray.Array, []float64) {
	t.Helper()
	data := make([]float64, samples*channels)
	for i := range data {
		data[i] = float64(i) / 2
	}
	arr, err := ndarray.New([]int{samples, 1, channels, 1}, data)
	require.NoError(t, err)
	times := make([]float64, samples)
	for i := range times {
		times[i] = float64(i) * 0.01
	}
	ts := &store.TimeSeriesIndex{
		GID:              "gid-1",
		Title:            "ts from data.mat",
		TimeSeriesType:   "TimeSeriesRegion",
		ConnectivityGID:  "conn-1",
		SamplePeriod:     0.01,
		SamplePeriodUnit: "s",
		LabelsOrdering:   `["Time","State Variable","Region","Mode"]`,
		LabelsDimensions: "{}",
		DataNDim:         4,
		DataLength1D:     samples,
		DataLength2D:     1,
		DataLength3D:     channels,
		DataLength4D:     1,
	}
	return ts, arr, times
}

func TestWriteFile_RoundTrip(t *testing.T) {
	ts, arr, times := series(t, 6, 3)
	path := filepath.Join(t.TempDir(), "out.arrow")

	require.NoError(t, WriteFile(path, ts, arr, times))

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, times, table.Times)
	require.Len(t, table.Rows, 6)
	for i, row := range table.Rows {
		for c, v := range row {
			assert.Equal(t, arr.At(i, 0, c, 0), v)
		}
	}

	assert.Equal(t, "gid-1", table.Metadata[MetaGID])
	assert.Equal(t, "conn-1", table.Metadata[MetaTopology])
	assert.Equal(t, "[6,1,3,1]", table.Metadata[MetaShape])
	assert.Equal(t, "0.01", table.Metadata[MetaSamplePeriod])
	assert.Equal(t, "{}", table.Metadata[MetaLabelsDimensions])
}

func TestWrite_Errors(t *testing.T) {
	ts, arr, times := series(t, 4, 2)
	var buf bytes.Buffer

	assert.ErrorContains(t, Write(&buf, ts, arr, times[:3]), "time axis")

	flat, err := ndarray.New([]int{4, 2}, make([]float64, 8))
	require.NoError(t, err)
	assert.ErrorContains(t, Write(&buf, ts, flat, times), "expected a (time, 1, channel, 1) array")
}

func TestSchema(t *testing.T) {
	ts, _, _ := series(t, 2, 7)
	ts.ConnectivityGID = ""
	ts.SensorsGID = "sensors-1"

	s := Schema(ts, 7)
	require.Equal(t, 2, s.NumFields())
	assert.Equal(t, ColumnTime, s.Field(0).Name)
	fsl, ok := s.Field(1).Type.(*arrow.FixedSizeListType)
	require.True(t, ok)
	assert.Equal(t, int32(7), fsl.Len())
	assert.Equal(t, arrow.FLOAT64, fsl.Elem().ID())
	v, ok := s.Metadata().GetValue(MetaTopology)
	require.True(t, ok)
	assert.Equal(t, "sensors-1", v)
}
