package timeseries

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type discriminators stored on containers and index rows.
const (
	TypeRegion = "TimeSeriesRegion"
	TypeEEG    = "TimeSeriesEEG"
)

// TypeFor maps a type name or a builder kind ("region", "eeg"), in any
// case, to its type discriminator. An empty string maps to "".
func TypeFor(s string) (string, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case KindRegion, strings.ToLower(TypeRegion):
		return TypeRegion, nil
	case KindEEG, strings.ToLower(TypeEEG):
		return TypeEEG, nil
	default:
		return "", fmt.Errorf("unknown time series type %q (want %s or %s)", s, KindRegion, KindEEG)
	}
}

// SamplePeriodUnit is the only unit this importer writes.
const SamplePeriodUnit = "s"

// StartTimeUnit is the unit of Record.StartTime. It is stored as given and
// does not shift the time axis.
const StartTimeUnit = "ms"

var (
	regionLabels = []string{"Time", "State Variable", "Region", "Mode"}
	eegLabels    = []string{"Time", "SV", "EEG Sensor", "Mode"}
)

// ShapeDescriptor holds the first four dimensions of a persisted array.
// Missing trailing dimensions are 0.
type ShapeDescriptor [4]int

// DescribeShape pads or truncates shape to four slots.
func DescribeShape(shape []int) ShapeDescriptor {
	var d ShapeDescriptor
	copy(d[:], shape)
	return d
}

// Record is the metadata of one imported time series. It is filled by a
// Builder and the importer, then persisted once.
type Record struct {
	GID               string
	Type              string
	Title             string
	ConnectivityGID   string
	SensorsGID        string
	HasSurfaceMapping bool

	SamplePeriod     float64
	SamplePeriodUnit string
	SampleRate       float64
	StartTime        float64

	LabelsOrdering   []string
	LabelsDimensions map[string][]string

	NDim  int
	Shape ShapeDescriptor
}

// SetSamplingRate derives the sample period in seconds from a rate in Hz.
func (r *Record) SetSamplingRate(hz float64) error {
	if hz <= 0 {
		return fmt.Errorf("sampling rate must be positive, got %g", hz)
	}
	r.SampleRate = hz
	r.SamplePeriod = 1 / hz
	r.SamplePeriodUnit = SamplePeriodUnit
	return nil
}

// TimeAxis returns n sample times i * SamplePeriod.
func (r *Record) TimeAxis(n int) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) * r.SamplePeriod
	}
	return t
}

// SetShape records the persisted shape.
func (r *Record) SetShape(shape []int) {
	r.NDim = len(shape)
	r.Shape = DescribeShape(shape)
}

// LabelsOrderingJSON renders the axis names as a JSON array.
func (r *Record) LabelsOrderingJSON() string {
	b, _ := json.Marshal(nonNil(r.LabelsOrdering))
	return string(b)
}

// LabelsDimensionsJSON renders the labels map, "{}" when empty.
func (r *Record) LabelsDimensionsJSON() string {
	if len(r.LabelsDimensions) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(r.LabelsDimensions)
	return string(b)
}

// TopologyGID returns whichever topology reference is set.
func (r *Record) TopologyGID() string {
	if r.ConnectivityGID != "" {
		return r.ConnectivityGID
	}
	return r.SensorsGID
}

// Attribute is a named scalar stored on a container.
type Attribute struct {
	Name  string
	Value any
}

// Attributes lists the metadata stored next to the data array.
func (r *Record) Attributes() []Attribute {
	attrs := []Attribute{
		{"gid", r.GID},
		{"title", r.Title},
		{"time_series_type", r.Type},
		{"sample_period", r.SamplePeriod},
		{"sample_period_unit", r.SamplePeriodUnit},
		{"sample_rate", r.SampleRate},
		{"start_time", r.StartTime},
		{"labels_ordering", r.LabelsOrderingJSON()},
		{"labels_dimensions", r.LabelsDimensionsJSON()},
		{"nr_dimensions", int64(r.NDim)},
	}
	if r.ConnectivityGID != "" {
		attrs = append(attrs, Attribute{"connectivity", r.ConnectivityGID})
	}
	if r.SensorsGID != "" {
		attrs = append(attrs, Attribute{"sensors", r.SensorsGID})
	}
	return attrs
}

// ParseLabelsOrdering decodes a JSON array written by LabelsOrderingJSON.
func ParseLabelsOrdering(s string) ([]string, error) {
	var out []string
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decoding labels ordering: %w", err)
	}
	return out, nil
}

// ParseLabelsDimensions decodes a JSON object written by LabelsDimensionsJSON.
func ParseLabelsDimensions(s string) (map[string][]string, error) {
	out := map[string][]string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decoding labels dimensions: %w", err)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
