package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the index.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS connectivities (
    gid TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    number_of_regions INTEGER NOT NULL CHECK (number_of_regions > 0),
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sensors (
    gid TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    sensors_type TEXT NOT NULL DEFAULT 'EEG',
    number_of_sensors INTEGER NOT NULL CHECK (number_of_sensors > 0),
    created_at TEXT NOT NULL
);

-- One row per imported time series, mirroring the container metadata
CREATE TABLE IF NOT EXISTS time_series (
    gid TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    time_series_type TEXT NOT NULL,

    -- Exactly one topology reference is set
    connectivity_gid TEXT REFERENCES connectivities(gid),
    sensors_gid TEXT REFERENCES sensors(gid),
    has_surface_mapping INTEGER NOT NULL DEFAULT 0,

    sample_period REAL NOT NULL,
    sample_period_unit TEXT NOT NULL,
    sample_rate REAL NOT NULL,
    start_time REAL NOT NULL DEFAULT 0,

    labels_ordering TEXT NOT NULL,    -- JSON array
    labels_dimensions TEXT NOT NULL,  -- JSON object

    data_ndim INTEGER NOT NULL,
    data_length_1d INTEGER NOT NULL DEFAULT 0,
    data_length_2d INTEGER NOT NULL DEFAULT 0,
    data_length_3d INTEGER NOT NULL DEFAULT 0,
    data_length_4d INTEGER NOT NULL DEFAULT 0,

    -- Provenance
    data_path TEXT NOT NULL,
    source_file TEXT NOT NULL,
    dataset_name TEXT NOT NULL,
    structure_path TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,

    CHECK ((connectivity_gid IS NULL) <> (sensors_gid IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_time_series_type ON time_series(time_series_type);
CREATE INDEX IF NOT EXISTS idx_time_series_connectivity ON time_series(connectivity_gid);
CREATE INDEX IF NOT EXISTS idx_time_series_sensors ON time_series(sensors_gid);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema creates the tables on a new database. On an existing one it
// checks integrity and refuses a schema newer than this binary.
func InitSchema(ctx context.Context, db *sql.DB) error {
	version, err := schemaVersion(ctx, db)
	if err != nil {
		// No schema_version table: fresh database.
		if err := createSchema(ctx, db); err != nil {
			return fmt.Errorf("creating index schema: %w", err)
		}
		return nil
	}

	if err := ValidateIntegrity(ctx, db); err != nil {
		return fmt.Errorf("index integrity: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("index schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	return nil
}

func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return tx.Commit()
}

// ValidateIntegrity fails when PRAGMA integrity_check reports anything but
// "ok" or PRAGMA foreign_key_check returns rows, e.g. a time series whose
// connectivity row is gone.
func ValidateIntegrity(ctx context.Context, db *sql.DB) error {
	problems, err := pragmaStrings(ctx, db, `PRAGMA integrity_check`, func(rows *sql.Rows) (string, error) {
		var msg string
		err := rows.Scan(&msg)
		return msg, err
	})
	if err != nil {
		return err
	}
	if len(problems) != 1 || problems[0] != "ok" {
		return fmt.Errorf("integrity_check: %v", problems)
	}

	violations, err := pragmaStrings(ctx, db, `PRAGMA foreign_key_check`, func(rows *sql.Rows) (string, error) {
		var table, parent sql.NullString
		var rowid, fkid sql.NullInt64
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s row %d references missing %s", table.String, rowid.Int64, parent.String), nil
	})
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		return fmt.Errorf("foreign_key_check: %v", violations)
	}
	return nil
}

func pragmaStrings(ctx context.Context, db *sql.DB, pragma string, scan func(*sql.Rows) (string, error)) ([]string, error) {
	rows, err := db.QueryContext(ctx, pragma)
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", pragma, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", pragma, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
