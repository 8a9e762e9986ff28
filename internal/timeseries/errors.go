package timeseries

import (
	"fmt"

	"github.com/JulieCB/tvb-root/internal/topology"
)

// DimensionMismatchError reports a channel count that disagrees with the
// selected topology.
type DimensionMismatchError struct {
	Observed int
	Expected int
	Noun     string
	Unit     string
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("data has %d channels but the %s has %d %s", e.Observed, e.Noun, e.Expected, e.Unit)
}

// ShapeError reports an array whose rank or extent cannot become a time series.
type ShapeError struct {
	Shape  []int
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("array of shape %v: %s", e.Shape, e.Reason)
}

// TopologyKindError is returned when a builder receives the wrong topology variant.
type TopologyKindError struct {
	Builder string
	Want    topology.Kind
	Got     topology.Kind
}

func (e *TopologyKindError) Error() string {
	return fmt.Sprintf("%s time series need a %s topology, got %s", e.Builder, e.Want, e.Got)
}
