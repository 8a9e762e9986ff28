package importer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulieCB/tvb-root/internal/h5store"
	"github.com/JulieCB/tvb-root/internal/logging"
	"github.com/JulieCB/tvb-root/internal/matfile"
	"github.com/JulieCB/tvb-root/internal/ndarray"
	"github.com/JulieCB/tvb-root/internal/store"
	"github.com/JulieCB/tvb-root/internal/timeseries"
	"github.com/JulieCB/tvb-root/internal/topology"
)

// memReader serves arrays keyed by "dataset" or "dataset.structure.path".
type memReader map[string]*ndarray.Array

func (r memReader) Read(path, dataset, structurePath string) (*ndarray.Array, error) {
	key := dataset
	if structurePath != "" {
		key += "." + structurePath
	}
	a, ok := r[key]
	if !ok {
		return nil, &matfile.ParseError{Path: path, Dataset: dataset, StructurePath: structurePath, Err: matfile.ErrNotFound}
	}
	return a, nil
}

type env struct {
	dir      string
	dataFile string
	index    *store.Store
	storage  *h5store.Storage
	conn     *topology.Connectivity
	sensors  *topology.SensorArray
}

func newEnv(t *testing.T, regions, sensorCount int) *env {
	t.Helper()
	dir := filepath.Join(t.TempDir(), store.DirName)
	index, err := store.Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	storage, err := h5store.New(filepath.Join(dir, store.StorageDirName))
	require.NoError(t, err)

	ctx := context.Background()
	conn, err := topology.NewConnectivity("conn", regions)
	require.NoError(t, err)
	require.NoError(t, index.AddConnectivity(ctx, conn))
	sensors, err := topology.NewSensorArray("cap", "EEG", sensorCount)
	require.NoError(t, err)
	require.NoError(t, index.AddSensors(ctx, sensors))

	dataFile := filepath.Join(t.TempDir(), "recording.mat")
	require.NoError(t, os.WriteFile(dataFile, []byte("placeholder"), 0o644))

	return &env{dir: dir, dataFile: dataFile, index: index, storage: storage, conn: conn, sensors: sensors}
}

func (e *env) importer(t *testing.T, kind string, reader matfile.Reader, events *logging.ImportLog) *Importer {
	t.Helper()
	b, err := timeseries.BuilderFor(kind)
	require.NoError(t, err)
	return New(reader, e.storage, e.index, b, nil, events)
}

func (e *env) request(dataset string, topo topology.Topology) Request {
	return Request{DataFile: e.dataFile, DatasetName: dataset, SamplingRate: 100, Topology: topo}
}

// assertNothingStored checks that a failed import left no row and no file.
func (e *env) assertNothingStored(t *testing.T) {
	t.Helper()
	n, err := e.index.CountTimeSeries(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "index rows")

	entries, err := os.ReadDir(e.storage.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "storage files")
}

func seq(t *testing.T, rows, cols int) *ndarray.Array {
	t.Helper()
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i) * 0.25
	}
	a, err := ndarray.New([]int{rows, cols}, data)
	require.NoError(t, err)
	return a
}

func TestLaunch_RegionRoundTrip(t *testing.T) {
	e := newEnv(t, 5, 4)
	src := seq(t, 10, 5)
	im := e.importer(t, timeseries.KindRegion, memReader{"ts": src}, nil)

	row, err := im.Launch(context.Background(), e.request("ts", e.conn))
	require.NoError(t, err)

	assert.Equal(t, timeseries.TypeRegion, row.TimeSeriesType)
	assert.Equal(t, e.conn.GID(), row.ConnectivityGID)
	assert.True(t, row.HasSurfaceMapping)
	assert.Equal(t, 4, row.DataNDim)
	assert.Equal(t, []int{10, 1, 5, 1}, row.Shape())
	assert.InDelta(t, 0.01, row.SamplePeriod, 1e-15)
	assert.Equal(t, "s", row.SamplePeriodUnit)
	assert.Equal(t, "{}", row.LabelsDimensions)
	assert.Equal(t, `["Time","State Variable","Region","Mode"]`, row.LabelsOrdering)
	assert.Equal(t, "ts from recording.mat", row.Title)
	assert.Equal(t, e.storage.Path(row.GID), row.DataPath)

	stored, err := e.index.GetTimeSeries(context.Background(), row.GID)
	require.NoError(t, err)
	assert.Equal(t, row.Shape(), stored.Shape())

	c, err := e.storage.Open(row.GID)
	require.NoError(t, err)
	defer c.Close()

	data, err := c.Data()
	require.NoError(t, err)
	assert.Equal(t, []int{10, 1, 5, 1}, data.Shape())
	assert.Equal(t, src.At(7, 3), data.At(7, 0, 3, 0))

	times, err := c.Time()
	require.NoError(t, err)
	require.Len(t, times, 10)
	for i, v := range times {
		assert.InDelta(t, float64(i)*0.01, v, 1e-12)
	}

	gid, err := c.StringAttribute("gid")
	require.NoError(t, err)
	assert.Equal(t, row.GID, gid)
	connRef, err := c.StringAttribute("connectivity")
	require.NoError(t, err)
	assert.Equal(t, e.conn.GID(), connRef)
}

func TestLaunch_TransposeMatchesPreTransposed(t *testing.T) {
	e := newEnv(t, 5, 4)
	a := seq(t, 5, 12)
	im := e.importer(t, timeseries.KindRegion, memReader{"a": a, "at": a.Transpose()}, nil)
	ctx := context.Background()

	req := e.request("a", e.conn)
	req.Transpose = true
	viaFlag, err := im.Launch(ctx, req)
	require.NoError(t, err)

	direct, err := im.Launch(ctx, e.request("at", e.conn))
	require.NoError(t, err)

	assert.Equal(t, direct.Shape(), viaFlag.Shape())
	readData := func(gid string) *ndarray.Array {
		c, err := e.storage.Open(gid)
		require.NoError(t, err)
		defer c.Close()
		d, err := c.Data()
		require.NoError(t, err)
		return d
	}
	assert.True(t, readData(viaFlag.GID).Equal(readData(direct.GID)))
}

func TestLaunch_SliceAfterTranspose(t *testing.T) {
	e := newEnv(t, 3, 4)
	im := e.importer(t, timeseries.KindRegion, memReader{"ts": seq(t, 3, 4)}, nil)

	req := e.request("ts", e.conn)
	req.Transpose = true
	req.Slice = "1:3,:"
	row, err := im.Launch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 3, 1}, row.Shape())
}

func TestLaunch_ChannelMismatch(t *testing.T) {
	e := newEnv(t, 5, 4)
	im := e.importer(t, timeseries.KindRegion, memReader{"ts": seq(t, 10, 4)}, nil)

	_, err := im.Launch(context.Background(), e.request("ts", e.conn))
	var le *LaunchError
	require.True(t, errors.As(err, &le))
	var dm *timeseries.DimensionMismatchError
	require.True(t, errors.As(err, &dm))
	assert.Contains(t, err.Error(), "4")
	assert.Contains(t, err.Error(), "5")

	e.assertNothingStored(t)
}

func TestLaunch_ParseFailure(t *testing.T) {
	e := newEnv(t, 5, 4)
	im := e.importer(t, timeseries.KindRegion, memReader{}, nil)

	req := e.request("missing", e.conn)
	req.StructurePath = "a.b"
	_, err := im.Launch(context.Background(), req)

	var le *LaunchError
	require.True(t, errors.As(err, &le))
	var pe *matfile.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "a.b", pe.StructurePath)
	assert.ErrorIs(t, err, matfile.ErrNotFound)

	e.assertNothingStored(t)
}

func TestLaunch_EEG(t *testing.T) {
	e := newEnv(t, 5, 4)
	im := e.importer(t, timeseries.KindEEG, memReader{"eeg": seq(t, 4, 20)}, nil)

	req := e.request("eeg", e.sensors)
	req.Transpose = true
	req.SamplingRate = 250
	req.Title = "resting state"
	row, err := im.Launch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, timeseries.TypeEEG, row.TimeSeriesType)
	assert.Equal(t, e.sensors.GID(), row.SensorsGID)
	assert.Empty(t, row.ConnectivityGID)
	assert.False(t, row.HasSurfaceMapping)
	assert.Equal(t, []int{20, 1, 4, 1}, row.Shape())
	assert.Equal(t, "resting state", row.Title)
	assert.InDelta(t, 0.004, row.SamplePeriod, 1e-15)
}

func TestLaunch_WrongTopologyKind(t *testing.T) {
	e := newEnv(t, 4, 4)
	im := e.importer(t, timeseries.KindRegion, memReader{"ts": seq(t, 10, 4)}, nil)

	_, err := im.Launch(context.Background(), e.request("ts", e.sensors))
	var ke *timeseries.TopologyKindError
	assert.True(t, errors.As(err, &ke))
	e.assertNothingStored(t)
}

func TestLaunch_InvalidRequest(t *testing.T) {
	e := newEnv(t, 5, 4)
	im := e.importer(t, timeseries.KindRegion, memReader{"ts": seq(t, 10, 5)}, nil)

	tests := []struct {
		name   string
		modify func(*Request)
	}{
		{"zero sampling rate", func(r *Request) { r.SamplingRate = 0 }},
		{"negative sampling rate", func(r *Request) { r.SamplingRate = -10 }},
		{"no dataset", func(r *Request) { r.DatasetName = "" }},
		{"missing file", func(r *Request) { r.DataFile = filepath.Join(t.TempDir(), "gone.mat") }},
		{"no topology", func(r *Request) { r.Topology = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := e.request("ts", e.conn)
			tt.modify(&req)
			_, err := im.Launch(context.Background(), req)
			var le *LaunchError
			require.True(t, errors.As(err, &le))
			assert.Equal(t, "invalid import request", le.Message)
		})
	}
	e.assertNothingStored(t)
}

func TestLaunch_IndexFailureRemovesContainer(t *testing.T) {
	e := newEnv(t, 5, 4)
	im := e.importer(t, timeseries.KindRegion, memReader{"ts": seq(t, 10, 5)}, nil)

	// not registered in the index, so the foreign key rejects the row
	orphan, err := topology.NewConnectivity("orphan", 5)
	require.NoError(t, err)

	_, err = im.Launch(context.Background(), e.request("ts", orphan))
	var le *LaunchError
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Message, "index")
	e.assertNothingStored(t)
}

func TestLaunch_ImportLog(t *testing.T) {
	e := newEnv(t, 5, 4)
	events := logging.NewImportLog(e.dir, "debug")
	require.NotNil(t, events)
	defer events.Close()
	im := e.importer(t, timeseries.KindRegion, memReader{"ts": seq(t, 10, 5)}, events)

	_, err := im.Launch(context.Background(), e.request("ts", e.conn))
	require.NoError(t, err)
	_, err = im.Launch(context.Background(), e.request("nope", e.conn))
	require.Error(t, err)

	f, err := os.Open(filepath.Join(e.dir, logging.ImportLogFile))
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], `"launch_started"`)
	assert.Contains(t, lines[1], `"launch_committed"`)
	assert.Contains(t, lines[2], `"launch_started"`)
	assert.Contains(t, lines[3], `"launch_failed"`)
	assert.True(t, strings.Contains(lines[3], "nope"))
}

// listingReader queries the index while the array is being read, the way an
// MCP list call can arrive in the middle of an import.
type listingReader struct {
	index *store.Store
	arr   *ndarray.Array
	err   error
}

func (r *listingReader) Read(path, dataset, structurePath string) (*ndarray.Array, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, r.err = r.index.ListTimeSeries(ctx, "")
	return r.arr, nil
}

func TestLaunch_IndexReadableDuringRead(t *testing.T) {
	e := newEnv(t, 5, 4)
	reader := &listingReader{index: e.index, arr: seq(t, 10, 5)}
	im := e.importer(t, timeseries.KindRegion, reader, nil)

	_, err := im.Launch(context.Background(), e.request("ts", e.conn))
	require.NoError(t, err)
	assert.NoError(t, reader.err, "index must not be locked while the data file is read")
}

func TestLaunch_LogsTopologyAndChannels(t *testing.T) {
	e := newEnv(t, 5, 4)
	var buf bytes.Buffer
	b, err := timeseries.BuilderFor(timeseries.KindRegion)
	require.NoError(t, err)
	im := New(memReader{"ts": seq(t, 10, 5)}, e.storage, e.index, b, logging.NewLogger("trace", &buf), nil)

	_, err = im.Launch(context.Background(), e.request("ts", e.conn))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "container staged")
	assert.Contains(t, out, "topology="+e.conn.ID)
	assert.Contains(t, out, "channels=5")
}

func TestRequest_DefaultTitle(t *testing.T) {
	r := Request{DataFile: "/data/sub-01/eeg.mat", DatasetName: "exp", StructurePath: "run1.eeg"}
	assert.Equal(t, "exp.run1.eeg from eeg.mat", r.DefaultTitle())
}
