// Package mcp provides an MCP (Model Context Protocol) server for tsimport.
package mcp

// ImportInput defines the input for tsimport_import tool.
type ImportInput struct {
	DataFile      string  `json:"data_file" jsonschema:"Path to a MATLAB v7.3 file inside the project root"`
	DatasetName   string  `json:"dataset_name" jsonschema:"Top-level variable holding the data"`
	StructurePath string  `json:"structure_path,omitempty" jsonschema:"Dot-separated field path inside a struct variable"`
	Transpose     bool    `json:"transpose,omitempty" jsonschema:"Swap the two axes before slicing (data stored as channels x time)"`
	Slice         string  `json:"slice,omitempty" jsonschema:"Numpy-style slice applied after transpose, e.g. '10:20, :'"`
	SamplingRate  float64 `json:"sampling_rate,omitempty" jsonschema:"Sampling rate in Hz (default from config)"`
	StartTime     float64 `json:"start_time,omitempty" jsonschema:"Time of the first sample in ms"`
	Title         string  `json:"title,omitempty" jsonschema:"Title for the time series (default: '<dataset> from <file>')"`
	TopologyGID   string  `json:"topology_gid" jsonschema:"GID of the connectivity (region import) or sensor array (EEG import)"`
	Kind          string  `json:"kind,omitempty" jsonschema:"'region' or 'eeg' (default: picked from the topology)"`
}

// ImportOutput defines the output for tsimport_import tool.
type ImportOutput struct {
	TimeSeries TimeSeriesSummary `json:"time_series" jsonschema:"The committed time series"`
	Message    string            `json:"message" jsonschema:"Human-readable result message"`
}

// TimeSeriesSummary is the tool view of an indexed time series.
type TimeSeriesSummary struct {
	GID              string   `json:"gid"`
	Title            string   `json:"title"`
	Type             string   `json:"type"`
	TopologyGID      string   `json:"topology_gid"`
	Shape            []int    `json:"shape"`
	SampleRate       float64  `json:"sample_rate"`
	SamplePeriod     float64  `json:"sample_period"`
	SamplePeriodUnit string   `json:"sample_period_unit"`
	StartTime        float64  `json:"start_time"`
	LabelsOrdering   []string `json:"labels_ordering"`
	SourceFile       string   `json:"source_file"`
	DatasetName      string   `json:"dataset_name"`
	StructurePath    string   `json:"structure_path,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

// ListInput defines the input for tsimport_list tool.
type ListInput struct {
	Type string `json:"type,omitempty" jsonschema:"Filter by type: TimeSeriesRegion or TimeSeriesEEG"`
}

// ListOutput defines the output for tsimport_list tool.
type ListOutput struct {
	TimeSeries []TimeSeriesSummary `json:"time_series" jsonschema:"Indexed time series, newest first"`
	Count      int                 `json:"count" jsonschema:"Number of items"`
}

// ShowInput defines the input for tsimport_show tool.
type ShowInput struct {
	GID string `json:"gid" jsonschema:"GID of the time series"`
}

// ShowOutput defines the output for tsimport_show tool.
type ShowOutput struct {
	TimeSeries       TimeSeriesSummary   `json:"time_series"`
	LabelsDimensions map[string][]string `json:"labels_dimensions"`
	Topology         TopologySummary     `json:"topology"`
	ContainerPath    string              `json:"container_path"`
	ContainerPresent bool                `json:"container_present" jsonschema:"Whether the HDF5 container is on disk"`
}

// TopologiesInput defines the input for tsimport_topologies tool.
type TopologiesInput struct{}

// TopologiesOutput defines the output for tsimport_topologies tool.
type TopologiesOutput struct {
	Connectivities []TopologySummary `json:"connectivities"`
	Sensors        []TopologySummary `json:"sensors"`
	Count          int               `json:"count"`
}

// TopologySummary is the tool view of a connectivity or sensor array.
type TopologySummary struct {
	GID         string `json:"gid"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Channels    int    `json:"channels" jsonschema:"Number of regions or sensors"`
	SensorsType string `json:"sensors_type,omitempty"`
	CreatedAt   string `json:"created_at"`
}
