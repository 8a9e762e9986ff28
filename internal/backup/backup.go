// Package backup snapshots the index (topologies and time series rows) into
// checksummed gzip files and restores them. Containers are not copied; a
// restored row whose container is gone shows up in 'tsimport validate'.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/JulieCB/tvb-root/internal/store"
	"github.com/JulieCB/tvb-root/internal/topology"
)

// DirName is the snapshot directory inside the data directory.
const DirName = "backups"

const (
	filePrefix = "tsimport-backup-"
	fileSuffix = ".json.gz"
	timeLayout = time.RFC3339
)

// Snapshot is the payload of a snapshot file.
type Snapshot struct {
	Version        int                      `json:"version"`
	CreatedAt      time.Time                `json:"created_at"`
	Connectivities []*topology.Connectivity `json:"connectivities"`
	Sensors        []*topology.SensorArray  `json:"sensors"`
	TimeSeries     []*store.TimeSeriesIndex `json:"time_series"`
}

// Dir returns the snapshot directory for a data directory.
func Dir(dataDir string) string {
	return filepath.Join(dataDir, DirName)
}

// GeneratePath returns a timestamped snapshot filename in dir.
func GeneratePath(dir string, now time.Time) string {
	return filepath.Join(dir, filePrefix+now.UTC().Format("20060102-150405")+fileSuffix)
}

// Create reads every topology and time series row from s and writes them
// to path.
func Create(ctx context.Context, s *store.Store, path string) (*Snapshot, error) {
	conns, err := s.ListConnectivities(ctx)
	if err != nil {
		return nil, err
	}
	sensors, err := s.ListSensors(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.ListTimeSeries(ctx, "")
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version:        FormatVersion,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
		Connectivities: conns,
		Sensors:        sensors,
		TimeSeries:     rows,
	}
	if err := WriteFile(path, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// RestoreResult contains statistics about a restore.
type RestoreResult struct {
	TopologiesRestored int `json:"topologies_restored"`
	TopologiesSkipped  int `json:"topologies_skipped"`
	TimeSeriesRestored int `json:"time_series_restored"`
	TimeSeriesSkipped  int `json:"time_series_skipped"`
}

// Restore merges a snapshot into s. Rows whose GID already exists are
// skipped; the time series rows go in as one transaction.
func Restore(ctx context.Context, s *store.Store, path string) (*RestoreResult, error) {
	snap, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{}
	for _, c := range snap.Connectivities {
		_, err := s.GetConnectivity(ctx, c.ID)
		exists, err := present(err)
		if err != nil {
			return nil, err
		}
		if exists {
			result.TopologiesSkipped++
			continue
		}
		if err := s.AddConnectivity(ctx, c); err != nil {
			return nil, fmt.Errorf("restoring connectivity %s: %w", c.ID, err)
		}
		result.TopologiesRestored++
	}
	for _, a := range snap.Sensors {
		_, err := s.GetSensors(ctx, a.ID)
		exists, err := present(err)
		if err != nil {
			return nil, err
		}
		if exists {
			result.TopologiesSkipped++
			continue
		}
		if err := s.AddSensors(ctx, a); err != nil {
			return nil, fmt.Errorf("restoring sensors %s: %w", a.ID, err)
		}
		result.TopologiesRestored++
	}

	var missing []*store.TimeSeriesIndex
	for _, ts := range snap.TimeSeries {
		_, err := s.GetTimeSeries(ctx, ts.GID)
		exists, err := present(err)
		if err != nil {
			return nil, err
		}
		if exists {
			result.TimeSeriesSkipped++
			continue
		}
		missing = append(missing, ts)
	}
	if len(missing) == 0 {
		return result, nil
	}

	tx, err := s.BeginImport(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	for _, ts := range missing {
		if err := tx.InsertTimeSeries(ctx, ts); err != nil {
			return nil, fmt.Errorf("restoring time series %s: %w", ts.GID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing restore: %w", err)
	}
	result.TimeSeriesRestored = len(missing)
	return result, nil
}

// present reports whether a lookup found its row.
func present(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return false, err
}
