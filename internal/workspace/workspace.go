// Package workspace opens everything an import needs under one data
// directory: the index, the container storage, the event log and a reader.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/JulieCB/tvb-root/internal/config"
	"github.com/JulieCB/tvb-root/internal/h5store"
	"github.com/JulieCB/tvb-root/internal/importer"
	"github.com/JulieCB/tvb-root/internal/logging"
	"github.com/JulieCB/tvb-root/internal/matfile"
	"github.com/JulieCB/tvb-root/internal/store"
	"github.com/JulieCB/tvb-root/internal/timeseries"
	"github.com/JulieCB/tvb-root/internal/topology"
)

// ErrNotInitialized is returned by Open when the data directory is missing.
var ErrNotInitialized = errors.New("tsimport is not initialized here, run 'tsimport init' first")

// Workspace is an open data directory.
type Workspace struct {
	Root    string
	Dir     string
	Config  *config.TsimportConfig
	Store   *store.Store
	Storage *h5store.Storage
	Events  *logging.ImportLog
	Logger  *slog.Logger
	Reader  matfile.Reader
}

// Init creates the data directory for root and returns it.
func Init(root string, cfg *config.TsimportConfig) (string, error) {
	dir := cfg.DataDir(root)
	if err := os.MkdirAll(filepath.Join(dir, store.StorageDirName), 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	s, err := store.Open(dir)
	if err != nil {
		return "", err
	}
	return dir, s.Close()
}

// Open opens the data directory of root. It fails with ErrNotInitialized
// when Init has not been run.
func Open(root string, cfg *config.TsimportConfig, logger *slog.Logger) (*Workspace, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	dir := cfg.DataDir(root)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, ErrNotInitialized
	}

	s, err := store.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	storage, err := h5store.New(filepath.Join(dir, store.StorageDirName))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	return &Workspace{
		Root:    root,
		Dir:     dir,
		Config:  cfg,
		Store:   s,
		Storage: storage,
		Events:  logging.NewImportLog(dir, cfg.Logging.Level),
		Logger:  logger,
		Reader:  matfile.NewReader(),
	}, nil
}

// Importer returns an importer for kind ("region" or "eeg").
func (w *Workspace) Importer(kind string) (*importer.Importer, error) {
	b, err := timeseries.BuilderFor(kind)
	if err != nil {
		return nil, err
	}
	return importer.New(w.Reader, w.Storage, w.Store, b, w.Logger, w.Events), nil
}

// KindFor picks the importer kind that matches a topology.
func KindFor(topo topology.Topology) string {
	if topo.Kind() == topology.KindSensors {
		return timeseries.KindEEG
	}
	return timeseries.KindRegion
}

// Topology loads a connectivity or sensor array by GID.
func (w *Workspace) Topology(ctx context.Context, gid string) (topology.Topology, error) {
	if gid == "" {
		return nil, errors.New("a connectivity or sensor array GID is required")
	}
	topo, err := w.Store.GetTopology(ctx, gid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no connectivity or sensor array with GID %s", gid)
	}
	return topo, err
}

// SamplingRate returns rate, or the configured default when rate is zero.
func (w *Workspace) SamplingRate(rate float64) float64 {
	if rate == 0 {
		return w.Config.Importer.DefaultSamplingRate
	}
	return rate
}

// Close releases the index and the event log.
func (w *Workspace) Close() error {
	w.Events.Close()
	return w.Store.Close()
}
