package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/JulieCB/tvb-root/internal/importer"
	"github.com/JulieCB/tvb-root/internal/pathutil"
	"github.com/JulieCB/tvb-root/internal/ratelimit"
	"github.com/JulieCB/tvb-root/internal/sanitize"
	"github.com/JulieCB/tvb-root/internal/store"
	"github.com/JulieCB/tvb-root/internal/timeseries"
	"github.com/JulieCB/tvb-root/internal/topology"
	"github.com/JulieCB/tvb-root/internal/workspace"
)

// registerTools registers all tsimport tools with the MCP server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "tsimport_import",
		Description: "Import a dataset from a MATLAB v7.3 file as a region (connectivity) or EEG (sensor array) time series",
	}, s.handleImport)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "tsimport_list",
		Description: "List imported time series",
	}, s.handleList)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "tsimport_show",
		Description: "Show one imported time series with its topology and container status",
	}, s.handleShow)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "tsimport_topologies",
		Description: "List the connectivities and sensor arrays time series can be imported against",
	}, s.handleTopologies)
}

func (s *Server) handleImport(ctx context.Context, req *sdk.CallToolRequest, args ImportInput) (_ *sdk.CallToolResult, _ ImportOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tsimport_import", start, retErr, sanitizeToolParams(map[string]any{
			"data_file": args.DataFile, "dataset_name": args.DatasetName, "structure_path": args.StructurePath,
			"transpose": args.Transpose, "slice": args.Slice, "topology_gid": args.TopologyGID, "kind": args.Kind,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "tsimport_import"); err != nil {
		return nil, ImportOutput{}, err
	}

	dataFile := args.DataFile
	if dataFile != "" && !filepath.IsAbs(dataFile) {
		dataFile = filepath.Join(s.ws.Root, dataFile)
	}
	resolved, err := pathutil.ResolveFile(dataFile, pathutil.AllowedDataDirs(s.ws.Root))
	if err != nil {
		return nil, ImportOutput{}, fmt.Errorf("data_file: %w", err)
	}

	topo, err := s.ws.Topology(ctx, args.TopologyGID)
	if err != nil {
		return nil, ImportOutput{}, err
	}
	kind := strings.ToLower(args.Kind)
	if kind == "" {
		kind = workspace.KindFor(topo)
	}
	im, err := s.ws.Importer(kind)
	if err != nil {
		return nil, ImportOutput{}, err
	}

	row, err := im.Launch(ctx, importer.Request{
		DataFile:      resolved,
		DatasetName:   args.DatasetName,
		StructurePath: args.StructurePath,
		Transpose:     args.Transpose,
		Slice:         args.Slice,
		SamplingRate:  s.ws.SamplingRate(args.SamplingRate),
		StartTime:     args.StartTime,
		Title:         sanitize.Title(args.Title),
		Topology:      topo,
	})
	if err != nil {
		return nil, ImportOutput{}, err
	}

	summary := summarize(row)
	return nil, ImportOutput{
		TimeSeries: summary,
		Message:    fmt.Sprintf("Imported %s %s with shape %v", row.TimeSeriesType, row.GID, summary.Shape),
	}, nil
}

func (s *Server) handleList(ctx context.Context, req *sdk.CallToolRequest, args ListInput) (_ *sdk.CallToolResult, _ ListOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tsimport_list", start, retErr, sanitizeToolParams(map[string]any{"type": args.Type}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "tsimport_list"); err != nil {
		return nil, ListOutput{}, err
	}

	tsType, err := timeseries.TypeFor(args.Type)
	if err != nil {
		return nil, ListOutput{}, err
	}
	rows, err := s.ws.Store.ListTimeSeries(ctx, tsType)
	if err != nil {
		return nil, ListOutput{}, err
	}

	items := make([]TimeSeriesSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, summarize(row))
	}
	return nil, ListOutput{TimeSeries: items, Count: len(items)}, nil
}

func (s *Server) handleShow(ctx context.Context, req *sdk.CallToolRequest, args ShowInput) (_ *sdk.CallToolResult, _ ShowOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tsimport_show", start, retErr, sanitizeToolParams(map[string]any{"gid": args.GID}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "tsimport_show"); err != nil {
		return nil, ShowOutput{}, err
	}
	if args.GID == "" {
		return nil, ShowOutput{}, errors.New("gid is required")
	}

	row, err := s.ws.Store.GetTimeSeries(ctx, args.GID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ShowOutput{}, fmt.Errorf("no time series with GID %s", args.GID)
	}
	if err != nil {
		return nil, ShowOutput{}, err
	}

	summary := summarize(row)
	topo, err := s.ws.Store.GetTopology(ctx, summary.TopologyGID)
	if err != nil {
		return nil, ShowOutput{}, fmt.Errorf("loading topology of %s: %w", row.GID, err)
	}
	dims, err := timeseries.ParseLabelsDimensions(row.LabelsDimensions)
	if err != nil {
		return nil, ShowOutput{}, err
	}

	return nil, ShowOutput{
		TimeSeries:       summary,
		LabelsDimensions: dims,
		Topology:         summarizeTopology(topo),
		ContainerPath:    pathutil.RedactPath(row.DataPath),
		ContainerPresent: s.ws.Storage.Exists(row.GID),
	}, nil
}

func (s *Server) handleTopologies(ctx context.Context, req *sdk.CallToolRequest, args TopologiesInput) (_ *sdk.CallToolResult, _ TopologiesOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("tsimport_topologies", start, retErr, nil)
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "tsimport_topologies"); err != nil {
		return nil, TopologiesOutput{}, err
	}

	conns, err := s.ws.Store.ListConnectivities(ctx)
	if err != nil {
		return nil, TopologiesOutput{}, err
	}
	sensors, err := s.ws.Store.ListSensors(ctx)
	if err != nil {
		return nil, TopologiesOutput{}, err
	}

	out := TopologiesOutput{
		Connectivities: make([]TopologySummary, 0, len(conns)),
		Sensors:        make([]TopologySummary, 0, len(sensors)),
	}
	for _, c := range conns {
		out.Connectivities = append(out.Connectivities, summarizeTopology(c))
	}
	for _, a := range sensors {
		out.Sensors = append(out.Sensors, summarizeTopology(a))
	}
	out.Count = len(out.Connectivities) + len(out.Sensors)
	return nil, out, nil
}

func summarize(row *store.TimeSeriesIndex) TimeSeriesSummary {
	topoGID := row.ConnectivityGID
	if topoGID == "" {
		topoGID = row.SensorsGID
	}
	labels, err := timeseries.ParseLabelsOrdering(row.LabelsOrdering)
	if err != nil || labels == nil {
		labels = []string{}
	}
	return TimeSeriesSummary{
		GID:              row.GID,
		Title:            row.Title,
		Type:             row.TimeSeriesType,
		TopologyGID:      topoGID,
		Shape:            append([]int{}, row.Shape()...),
		SampleRate:       row.SampleRate,
		SamplePeriod:     row.SamplePeriod,
		SamplePeriodUnit: row.SamplePeriodUnit,
		StartTime:        row.StartTime,
		LabelsOrdering:   labels,
		SourceFile:       filepath.Base(row.SourceFile),
		DatasetName:      row.DatasetName,
		StructurePath:    row.StructurePath,
		CreatedAt:        row.CreatedAt.Format(time.RFC3339),
	}
}

func summarizeTopology(topo topology.Topology) TopologySummary {
	out := TopologySummary{
		GID:      topo.GID(),
		Kind:     string(topo.Kind()),
		Channels: topo.ChannelCount(),
	}
	switch t := topo.(type) {
	case *topology.Connectivity:
		out.Title = t.Title
		out.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	case *topology.SensorArray:
		out.Title = t.Title
		out.SensorsType = t.SensorsType
		out.CreatedAt = t.CreatedAt.Format(time.RFC3339)
	}
	return out
}
