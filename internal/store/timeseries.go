package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// TimeSeriesIndex is the queryable summary of one stored time series.
type TimeSeriesIndex struct {
	GID               string    `json:"gid"`
	Title             string    `json:"title"`
	TimeSeriesType    string    `json:"time_series_type"`
	ConnectivityGID   string    `json:"connectivity_gid,omitempty"`
	SensorsGID        string    `json:"sensors_gid,omitempty"`
	HasSurfaceMapping bool      `json:"has_surface_mapping"`
	SamplePeriod      float64   `json:"sample_period"`
	SamplePeriodUnit  string    `json:"sample_period_unit"`
	SampleRate        float64   `json:"sample_rate"`
	StartTime         float64   `json:"start_time"`
	LabelsOrdering    string    `json:"labels_ordering"`
	LabelsDimensions  string    `json:"labels_dimensions"`
	DataNDim          int       `json:"data_ndim"`
	DataLength1D      int       `json:"data_length_1d"`
	DataLength2D      int       `json:"data_length_2d"`
	DataLength3D      int       `json:"data_length_3d"`
	DataLength4D      int       `json:"data_length_4d"`
	DataPath          string    `json:"data_path"`
	SourceFile        string    `json:"source_file"`
	DatasetName       string    `json:"dataset_name"`
	StructurePath     string    `json:"structure_path,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Shape returns the stored shape slots trimmed to DataNDim.
func (ts *TimeSeriesIndex) Shape() []int {
	slots := []int{ts.DataLength1D, ts.DataLength2D, ts.DataLength3D, ts.DataLength4D}
	n := ts.DataNDim
	if n > len(slots) {
		n = len(slots)
	}
	if n < 0 {
		n = 0
	}
	return slots[:n]
}

const timeSeriesColumns = `gid, title, time_series_type, connectivity_gid, sensors_gid, has_surface_mapping,
    sample_period, sample_period_unit, sample_rate, start_time, labels_ordering, labels_dimensions,
    data_ndim, data_length_1d, data_length_2d, data_length_3d, data_length_4d,
    data_path, source_file, dataset_name, structure_path, created_at`

// ImportTx is the index side of one import. Nothing is visible to other
// readers until Commit.
type ImportTx struct {
	tx   *sql.Tx
	done bool
}

// BeginImport starts an import transaction.
func (s *Store) BeginImport(ctx context.Context) (*ImportTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &ImportTx{tx: tx}, nil
}

// InsertTimeSeries adds the index row.
func (t *ImportTx) InsertTimeSeries(ctx context.Context, ts *TimeSeriesIndex) error {
	if ts.CreatedAt.IsZero() {
		ts.CreatedAt = time.Now().UTC()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO time_series (`+timeSeriesColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.GID, ts.Title, ts.TimeSeriesType,
		nullString(ts.ConnectivityGID), nullString(ts.SensorsGID), boolToInt(ts.HasSurfaceMapping),
		ts.SamplePeriod, ts.SamplePeriodUnit, ts.SampleRate, ts.StartTime,
		ts.LabelsOrdering, ts.LabelsDimensions,
		ts.DataNDim, ts.DataLength1D, ts.DataLength2D, ts.DataLength3D, ts.DataLength4D,
		ts.DataPath, ts.SourceFile, ts.DatasetName, ts.StructurePath, formatTime(ts.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert time series: %w", err)
	}
	return nil
}

// Commit makes the import visible.
func (t *ImportTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	return t.tx.Commit()
}

// Rollback discards the import. It is a no-op after Commit.
func (t *ImportTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}

// ListTimeSeries returns stored time series, newest first. An empty
// tsType lists every type.
func (s *Store) ListTimeSeries(ctx context.Context, tsType string) ([]*TimeSeriesIndex, error) {
	query := `SELECT ` + timeSeriesColumns + ` FROM time_series`
	var args []any
	if tsType != "" {
		query += ` WHERE time_series_type = ?`
		args = append(args, tsType)
	}
	query += ` ORDER BY created_at DESC, gid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time series: %w", err)
	}
	defer rows.Close()

	var out []*TimeSeriesIndex
	for rows.Next() {
		ts, err := scanTimeSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// GetTimeSeries loads one index row.
func (s *Store) GetTimeSeries(ctx context.Context, gid string) (*TimeSeriesIndex, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+timeSeriesColumns+` FROM time_series WHERE gid = ?`, gid)
	ts, err := scanTimeSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("time series %s: %w", gid, ErrNotFound)
	}
	return ts, err
}

// CountTimeSeries returns the number of index rows.
func (s *Store) CountTimeSeries(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM time_series`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count time series: %w", err)
	}
	return n, nil
}

func scanTimeSeries(row scanner) (*TimeSeriesIndex, error) {
	var ts TimeSeriesIndex
	var conn, sens sql.NullString
	var surface int
	var created string
	err := row.Scan(&ts.GID, &ts.Title, &ts.TimeSeriesType, &conn, &sens, &surface,
		&ts.SamplePeriod, &ts.SamplePeriodUnit, &ts.SampleRate, &ts.StartTime,
		&ts.LabelsOrdering, &ts.LabelsDimensions,
		&ts.DataNDim, &ts.DataLength1D, &ts.DataLength2D, &ts.DataLength3D, &ts.DataLength4D,
		&ts.DataPath, &ts.SourceFile, &ts.DatasetName, &ts.StructurePath, &created)
	if err != nil {
		return nil, err
	}
	ts.ConnectivityGID = conn.String
	ts.SensorsGID = sens.String
	ts.HasSurfaceMapping = surface != 0
	ts.CreatedAt = parseTime(created)
	return &ts, nil
}
