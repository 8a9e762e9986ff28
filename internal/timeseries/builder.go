package timeseries

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JulieCB/tvb-root/internal/ndarray"
	"github.com/JulieCB/tvb-root/internal/topology"
)

// Variant names accepted by BuilderFor.
const (
	KindRegion = "region"
	KindEEG    = "eeg"
)

// Container is a writable time-series artifact keyed by GID.
// Nothing is visible at the final location until Promote succeeds.
type Container interface {
	WriteData(arr *ndarray.Array) error
	WriteTime(t []float64) error
	// DataShape reads back the persisted shape of the data array.
	DataShape() ([]int, error)
	SetAttribute(name string, value any) error
	Close() error
	Promote() error
	Discard() error
}

// ContainerFactory opens new containers.
type ContainerFactory interface {
	Create(gid string) (Container, error)
}

// Builder produces a record and an empty container for one variant.
type Builder interface {
	Kind() string
	Build(shape []int, topo topology.Topology, containers ContainerFactory) (*Record, Container, error)
}

// BuilderFor returns the builder for a variant name.
func BuilderFor(kind string) (Builder, error) {
	switch kind {
	case KindRegion:
		return RegionBuilder{}, nil
	case KindEEG:
		return EEGBuilder{}, nil
	default:
		return nil, fmt.Errorf("unknown time series kind %q (want %s or %s)", kind, KindRegion, KindEEG)
	}
}

// RegionBuilder builds time series over the nodes of a connectivity.
type RegionBuilder struct{}

func (RegionBuilder) Kind() string { return KindRegion }

func (b RegionBuilder) Build(shape []int, topo topology.Topology, containers ContainerFactory) (*Record, Container, error) {
	conn, ok := topo.(*topology.Connectivity)
	if !ok {
		return nil, nil, kindError(b.Kind(), topology.KindConnectivity, topo)
	}
	if err := checkCanonical(shape, conn); err != nil {
		return nil, nil, err
	}
	rec := &Record{
		GID:               uuid.NewString(),
		Type:              TypeRegion,
		ConnectivityGID:   conn.GID(),
		HasSurfaceMapping: true,
		LabelsOrdering:    append([]string(nil), regionLabels...),
		LabelsDimensions:  map[string][]string{},
	}
	return open(rec, containers, "connectivity", conn.GID())
}

// EEGBuilder builds time series over the sensors of an EEG cap.
type EEGBuilder struct{}

func (EEGBuilder) Kind() string { return KindEEG }

func (b EEGBuilder) Build(shape []int, topo topology.Topology, containers ContainerFactory) (*Record, Container, error) {
	sensors, ok := topo.(*topology.SensorArray)
	if !ok {
		return nil, nil, kindError(b.Kind(), topology.KindSensors, topo)
	}
	if err := checkCanonical(shape, sensors); err != nil {
		return nil, nil, err
	}
	rec := &Record{
		GID:              uuid.NewString(),
		Type:             TypeEEG,
		SensorsGID:       sensors.GID(),
		LabelsOrdering:   append([]string(nil), eegLabels...),
		LabelsDimensions: map[string][]string{},
	}
	return open(rec, containers, "sensors", sensors.GID())
}

func checkCanonical(shape []int, topo topology.Topology) error {
	if len(shape) != 4 {
		return &ShapeError{Shape: shape, Reason: "expected canonical (time, 1, channel, 1) layout"}
	}
	return ValidateChannels(shape[AxisChannel], topo)
}

func kindError(builder string, want topology.Kind, topo topology.Topology) error {
	got := topology.Kind("none")
	if topo != nil {
		got = topo.Kind()
	}
	return &TopologyKindError{Builder: builder, Want: want, Got: got}
}

func open(rec *Record, containers ContainerFactory, refName, refGID string) (*Record, Container, error) {
	c, err := containers.Create(rec.GID)
	if err != nil {
		return nil, nil, fmt.Errorf("creating container %s: %w", rec.GID, err)
	}
	if err := c.SetAttribute(refName, refGID); err != nil {
		_ = c.Discard()
		return nil, nil, fmt.Errorf("storing %s reference: %w", refName, err)
	}
	return rec, c, nil
}
