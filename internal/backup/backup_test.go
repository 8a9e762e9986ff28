package backup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulieCB/tvb-root/internal/store"
	"github.com/JulieCB/tvb-root/internal/topology"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), store.DirName))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// populate adds one connectivity, one sensor array and one region row.
func populate(t *testing.T, s *store.Store) (*topology.Connectivity, *store.TimeSeriesIndex) {
	t.Helper()
	ctx := context.Background()

	conn, err := topology.NewConnectivity("conn", 5)
	require.NoError(t, err)
	require.NoError(t, s.AddConnectivity(ctx, conn))
	sensors, err := topology.NewSensorArray("cap", "EEG", 8)
	require.NoError(t, err)
	require.NoError(t, s.AddSensors(ctx, sensors))

	row := &store.TimeSeriesIndex{
		GID:              "ts-1",
		Title:            "rest from data.mat",
		TimeSeriesType:   "TimeSeriesRegion",
		ConnectivityGID:  conn.ID,
		SamplePeriod:     0.01,
		SamplePeriodUnit: "s",
		SampleRate:       100,
		LabelsOrdering:   `["Time","State Variable","Region","Mode"]`,
		LabelsDimensions: "{}",
		DataNDim:         4,
		DataLength1D:     10,
		DataLength2D:     1,
		DataLength3D:     5,
		DataLength4D:     1,
		DataPath:         "storage/ts-1.h5",
		SourceFile:       "data.mat",
		DatasetName:      "rest",
	}
	tx, err := s.BeginImport(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertTimeSeries(ctx, row))
	require.NoError(t, tx.Commit())
	return conn, row
}

func TestCreateAndRestore(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	conn, row := populate(t, src)

	path := GeneratePath(t.TempDir(), time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "tsimport-backup-20240301-120000.json.gz", filepath.Base(path))

	snap, err := Create(ctx, src, path)
	require.NoError(t, err)
	require.Len(t, snap.Connectivities, 1)
	require.Len(t, snap.Sensors, 1)
	require.Len(t, snap.TimeSeries, 1)

	header, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, 1, header.TimeSeries)
	assert.Equal(t, 1, header.Connectivities)
	assert.Equal(t, 1, header.Sensors)

	dst := newTestStore(t)
	result, err := Restore(ctx, dst, path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TopologiesRestored)
	assert.Equal(t, 1, result.TimeSeriesRestored)

	got, err := dst.GetTimeSeries(ctx, row.GID)
	require.NoError(t, err)
	assert.Equal(t, conn.ID, got.ConnectivityGID)
	assert.Equal(t, 5, got.DataLength3D)
	assert.Equal(t, row.Title, got.Title)

	// A second restore merges nothing new.
	result, err = Restore(ctx, dst, path)
	require.NoError(t, err, "second Restore()")
	assert.Equal(t, 2, result.TopologiesSkipped)
	assert.Equal(t, 1, result.TimeSeriesSkipped)
	assert.Zero(t, result.TimeSeriesRestored)
}

func TestCreate_EmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "empty.json.gz")
	snap, err := Create(context.Background(), newTestStore(t), path)
	require.NoError(t, err)
	assert.Empty(t, snap.TimeSeries)
	assert.FileExists(t, path, "snapshot not written")
}

func TestRestore_MissingFile(t *testing.T) {
	_, err := Restore(context.Background(), newTestStore(t), filepath.Join(t.TempDir(), "nope.json.gz"))
	assert.Error(t, err, "expected error for a missing snapshot")
}
