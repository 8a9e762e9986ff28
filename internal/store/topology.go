package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/JulieCB/tvb-root/internal/topology"
)

// AddConnectivity registers a connectivity.
func (s *Store) AddConnectivity(ctx context.Context, c *topology.Connectivity) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO connectivities (gid, title, number_of_regions, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, c.NumberOfRegions, formatTime(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert connectivity: %w", err)
	}
	return nil
}

// AddSensors registers a sensor array.
func (s *Store) AddSensors(ctx context.Context, a *topology.SensorArray) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sensors (gid, title, sensors_type, number_of_sensors, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.SensorsType, a.NumberOfSensors, formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert sensors: %w", err)
	}
	return nil
}

// GetConnectivity loads a connectivity by GID.
func (s *Store) GetConnectivity(ctx context.Context, gid string) (*topology.Connectivity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT gid, title, number_of_regions, created_at FROM connectivities WHERE gid = ?`, gid)
	c, err := scanConnectivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("connectivity %s: %w", gid, ErrNotFound)
	}
	return c, err
}

// GetSensors loads a sensor array by GID.
func (s *Store) GetSensors(ctx context.Context, gid string) (*topology.SensorArray, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT gid, title, sensors_type, number_of_sensors, created_at FROM sensors WHERE gid = ?`, gid)
	a, err := scanSensors(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sensors %s: %w", gid, ErrNotFound)
	}
	return a, err
}

// GetTopology looks a GID up among connectivities, then sensor arrays.
func (s *Store) GetTopology(ctx context.Context, gid string) (topology.Topology, error) {
	c, err := s.GetConnectivity(ctx, gid)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	a, err := s.GetSensors(ctx, gid)
	if err == nil {
		return a, nil
	}
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("topology %s: %w", gid, ErrNotFound)
	}
	return nil, err
}

// ListConnectivities returns all connectivities, oldest first.
func (s *Store) ListConnectivities(ctx context.Context) ([]*topology.Connectivity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gid, title, number_of_regions, created_at FROM connectivities ORDER BY created_at, gid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query connectivities: %w", err)
	}
	defer rows.Close()

	var out []*topology.Connectivity
	for rows.Next() {
		c, err := scanConnectivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListSensors returns all sensor arrays, oldest first.
func (s *Store) ListSensors(ctx context.Context) ([]*topology.SensorArray, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gid, title, sensors_type, number_of_sensors, created_at FROM sensors ORDER BY created_at, gid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sensors: %w", err)
	}
	defer rows.Close()

	var out []*topology.SensorArray
	for rows.Next() {
		a, err := scanSensors(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConnectivity(row scanner) (*topology.Connectivity, error) {
	var c topology.Connectivity
	var created string
	if err := row.Scan(&c.ID, &c.Title, &c.NumberOfRegions, &created); err != nil {
		return nil, err
	}
	c.CreatedAt = parseTime(created)
	return &c, nil
}

func scanSensors(row scanner) (*topology.SensorArray, error) {
	var a topology.SensorArray
	var created string
	if err := row.Scan(&a.ID, &a.Title, &a.SensorsType, &a.NumberOfSensors, &created); err != nil {
		return nil, err
	}
	a.CreatedAt = parseTime(created)
	return &a, nil
}
