// Package importer runs the MAT-file to time-series import pipeline inside
// a single transaction: read, normalize, build, write, index.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/JulieCB/tvb-root/internal/logging"
	"github.com/JulieCB/tvb-root/internal/matfile"
	"github.com/JulieCB/tvb-root/internal/store"
	"github.com/JulieCB/tvb-root/internal/timeseries"
	"github.com/JulieCB/tvb-root/internal/topology"
)

// Request is one import. It is not modified by Launch.
type Request struct {
	DataFile      string
	DatasetName   string
	StructurePath string
	Transpose     bool
	Slice         string
	// SamplingRate is in Hz and must be positive.
	SamplingRate float64
	StartTime    float64
	// Title defaults to "<dataset> from <file name>".
	Title    string
	Topology topology.Topology
}

// DefaultTitle is the title used when a request has none.
func (r Request) DefaultTitle() string {
	name := r.DatasetName
	if r.StructurePath != "" {
		name += "." + r.StructurePath
	}
	return fmt.Sprintf("%s from %s", name, filepath.Base(r.DataFile))
}

// LaunchError is the only error Launch returns. Err keeps the cause for
// errors.As, e.g. *matfile.ParseError or *timeseries.DimensionMismatchError.
type LaunchError struct {
	Message string
	Err     error
}

func (e *LaunchError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Storage creates containers and knows where promoted ones live.
type Storage interface {
	timeseries.ContainerFactory
	Path(gid string) string
	Remove(gid string) error
}

// Index opens the index side of an import.
type Index interface {
	BeginImport(ctx context.Context) (*store.ImportTx, error)
}

// Importer imports one variant of time series.
type Importer struct {
	reader  matfile.Reader
	storage Storage
	index   Index
	builder timeseries.Builder
	logger  *slog.Logger
	events  *logging.ImportLog
}

// New wires an importer. logger and events may be nil.
func New(reader matfile.Reader, storage Storage, index Index, builder timeseries.Builder, logger *slog.Logger, events *logging.ImportLog) *Importer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Importer{
		reader:  reader,
		storage: storage,
		index:   index,
		builder: builder,
		logger:  logger.With(logging.Component("importer"), logging.Kind(builder.Kind())),
		events:  events,
	}
}

// Kind returns the variant this importer builds.
func (im *Importer) Kind() string { return im.builder.Kind() }

// Launch imports req. On any failure nothing is left behind: the index
// transaction is rolled back and the staged container is deleted.
func (im *Importer) Launch(ctx context.Context, req Request) (*store.TimeSeriesIndex, error) {
	started := time.Now()
	if req.Title == "" {
		req.Title = req.DefaultTitle()
	}
	im.events.Log("launch_started", map[string]any{
		"file":      req.DataFile,
		"dataset":   req.DatasetName,
		"structure": req.StructurePath,
		"kind":      im.builder.Kind(),
	})

	row, err := im.launch(ctx, req)
	if err != nil {
		var le *LaunchError
		if !errors.As(err, &le) {
			le = &LaunchError{Message: "import failed", Err: err}
		}
		im.logger.Error("import failed",
			logging.File(req.DataFile), logging.Dataset(req.DatasetName), logging.Error(le))
		im.events.Log("launch_failed", map[string]any{
			"file":    req.DataFile,
			"dataset": req.DatasetName,
			"error":   le.Error(),
		})
		return nil, le
	}

	elapsed := time.Since(started).Milliseconds()
	im.logger.Info("imported time series",
		logging.GID(row.GID), logging.File(req.DataFile), logging.Dataset(req.DatasetName),
		logging.Topology(req.Topology.GID()), logging.Channels(row.DataLength3D),
		logging.Shape(row.Shape()), logging.Duration(elapsed))
	im.events.Log("launch_committed", map[string]any{
		"gid":         row.GID,
		"file":        req.DataFile,
		"dataset":     req.DatasetName,
		"type":        row.TimeSeriesType,
		"shape":       row.Shape(),
		"duration_ms": elapsed,
	})
	return row, nil
}

func (im *Importer) launch(ctx context.Context, req Request) (_ *store.TimeSeriesIndex, err error) {
	if err := validate(req); err != nil {
		return nil, &LaunchError{Message: "invalid import request", Err: err}
	}

	raw, err := im.reader.Read(req.DataFile, req.DatasetName, req.StructurePath)
	if err != nil {
		return nil, &LaunchError{Message: "could not read the data file", Err: err}
	}
	im.logger.Log(ctx, logging.LevelTrace, "array read", logging.Shape(raw.Shape()))

	data, err := timeseries.Normalize(raw, req.Transpose, req.Slice, req.Topology)
	if err != nil {
		return nil, &LaunchError{Message: "data does not fit the selected topology", Err: err}
	}
	im.logger.Log(ctx, logging.LevelTrace, "array normalized", logging.Shape(data.Shape()))

	rec, container, err := im.builder.Build(data.Shape(), req.Topology, im.storage)
	if err != nil {
		return nil, &LaunchError{Message: "could not create the time series", Err: err}
	}
	im.logger.Log(ctx, logging.LevelTrace, "container staged",
		logging.GID(rec.GID), logging.Topology(rec.TopologyGID()),
		logging.Channels(data.Shape()[timeseries.AxisChannel]))
	promoted := false
	defer func() {
		if !promoted {
			if dErr := container.Discard(); dErr != nil {
				im.logger.Warn("discarding container failed", logging.GID(rec.GID), logging.Error(dErr))
			}
		}
	}()

	rec.Title = req.Title
	rec.StartTime = req.StartTime
	if err := rec.SetSamplingRate(req.SamplingRate); err != nil {
		return nil, &LaunchError{Message: "invalid import request", Err: err}
	}

	samples := data.Shape()[timeseries.AxisTime]
	if err := container.WriteTime(rec.TimeAxis(samples)); err != nil {
		return nil, &LaunchError{Message: "could not write the time axis", Err: err}
	}
	if err := container.WriteData(data); err != nil {
		return nil, &LaunchError{Message: "could not write the data", Err: err}
	}

	shape, err := container.DataShape()
	if err != nil {
		return nil, &LaunchError{Message: "could not read back the stored shape", Err: err}
	}
	rec.SetShape(shape)

	for _, a := range rec.Attributes() {
		if err := container.SetAttribute(a.Name, a.Value); err != nil {
			return nil, &LaunchError{Message: "could not store metadata", Err: err}
		}
	}
	if err := container.Close(); err != nil {
		return nil, &LaunchError{Message: "could not finish the container", Err: err}
	}

	// The index transaction holds the only SQLite connection, so it opens
	// once the container is fully written.
	tx, err := im.index.BeginImport(ctx)
	if err != nil {
		return nil, &LaunchError{Message: "could not open the index", Err: err}
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				im.logger.Warn("rollback failed", logging.Error(rbErr))
			}
		}
	}()

	row := indexRow(rec, req, im.storage.Path(rec.GID))
	if err := tx.InsertTimeSeries(ctx, row); err != nil {
		return nil, &LaunchError{Message: "could not index the time series", Err: err}
	}

	if err := container.Promote(); err != nil {
		return nil, &LaunchError{Message: "could not store the container", Err: err}
	}
	promoted = true

	if err := tx.Commit(); err != nil {
		if rmErr := im.storage.Remove(rec.GID); rmErr != nil {
			im.logger.Warn("removing container after failed commit", logging.GID(rec.GID), logging.Error(rmErr))
		}
		return nil, &LaunchError{Message: "could not commit the import", Err: err}
	}
	return row, nil
}

func validate(req Request) error {
	if req.DatasetName == "" {
		return errors.New("dataset name is required")
	}
	if req.DataFile == "" {
		return errors.New("data file is required")
	}
	if _, err := os.Stat(req.DataFile); err != nil {
		return fmt.Errorf("data file: %w", err)
	}
	if req.SamplingRate <= 0 || math.IsNaN(req.SamplingRate) || math.IsInf(req.SamplingRate, 0) {
		return fmt.Errorf("sampling rate must be a positive number of Hz, got %g", req.SamplingRate)
	}
	if math.IsNaN(req.StartTime) || math.IsInf(req.StartTime, 0) {
		return fmt.Errorf("start time must be finite, got %g", req.StartTime)
	}
	if req.Topology == nil {
		return errors.New("a connectivity or sensor array must be selected")
	}
	return nil
}

// indexRow mirrors the record onto its index row.
func indexRow(rec *timeseries.Record, req Request, dataPath string) *store.TimeSeriesIndex {
	return &store.TimeSeriesIndex{
		GID:               rec.GID,
		Title:             rec.Title,
		TimeSeriesType:    rec.Type,
		ConnectivityGID:   rec.ConnectivityGID,
		SensorsGID:        rec.SensorsGID,
		HasSurfaceMapping: rec.HasSurfaceMapping,
		SamplePeriod:      rec.SamplePeriod,
		SamplePeriodUnit:  rec.SamplePeriodUnit,
		SampleRate:        rec.SampleRate,
		StartTime:         rec.StartTime,
		LabelsOrdering:    rec.LabelsOrderingJSON(),
		LabelsDimensions:  rec.LabelsDimensionsJSON(),
		DataNDim:          rec.NDim,
		DataLength1D:      rec.Shape[0],
		DataLength2D:      rec.Shape[1],
		DataLength3D:      rec.Shape[2],
		DataLength4D:      rec.Shape[3],
		DataPath:          dataPath,
		SourceFile:        req.DataFile,
		DatasetName:       req.DatasetName,
		StructurePath:     req.StructurePath,
		CreatedAt:         time.Now().UTC(),
	}
}
