package timeseries

import (
	"github.com/JulieCB/tvb-root/internal/ndarray"
	"github.com/JulieCB/tvb-root/internal/slicing"
	"github.com/JulieCB/tvb-root/internal/topology"
)

// Canonical axis positions of a time series.
const (
	AxisTime = iota
	AxisStateVariable
	AxisChannel
	AxisMode
)

// Normalize turns the array as read into the canonical (time, 1, channel, 1)
// layout. Transpose (reversing all axes) is applied first, then the slice
// expression, and the result must be a 2-dimensional (time, channel) array.
// So a (time, channel, trial) variable imports with a slice like ":, :, 0".
// The channel count is checked against topo before the singleton axes are
// inserted.
func Normalize(arr *ndarray.Array, transpose bool, sliceExpr string, topo topology.Topology) (*ndarray.Array, error) {
	if transpose {
		arr = arr.Transpose()
	}

	idx, err := slicing.Parse(sliceExpr)
	if err != nil {
		return nil, err
	}
	if !idx.IsIdentity() {
		arr, err = arr.Slice(idx)
		if err != nil {
			return nil, err
		}
	}

	shape := arr.Shape()
	if len(shape) != 2 {
		return nil, &ShapeError{Shape: shape, Reason: "expected a 2-dimensional (time, channel) array after transpose and slice " + idx.String()}
	}
	if shape[0] == 0 || shape[1] == 0 {
		return nil, &ShapeError{Shape: shape, Reason: "no samples left after transpose and slice"}
	}
	if err := ValidateChannels(shape[1], topo); err != nil {
		return nil, err
	}

	arr, err = arr.ExpandDims(AxisStateVariable)
	if err != nil {
		return nil, err
	}
	return arr.ExpandDims(AxisMode)
}
