package timeseries

import (
	"fmt"

	"github.com/JulieCB/tvb-root/internal/topology"
)

// ValidateChannels checks that channels matches the topology's channel count.
// It must run before anything is written.
func ValidateChannels(channels int, topo topology.Topology) error {
	if topo == nil {
		return fmt.Errorf("no topology selected")
	}
	if channels != topo.ChannelCount() {
		return &DimensionMismatchError{
			Observed: channels,
			Expected: topo.ChannelCount(),
			Noun:     topo.Noun(),
			Unit:     topo.Unit(),
		}
	}
	return nil
}
