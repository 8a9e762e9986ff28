// Package export writes stored time series to Apache Arrow IPC files.
//
// Each row is one sample: a float64 "time" column and a "data" column of
// fixed_size_list<float64>[channels]. Series metadata travels in the schema.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/JulieCB/tvb-root/internal/ndarray"
	"github.com/JulieCB/tvb-root/internal/store"
)

// batchRows caps the rows per record batch.
const batchRows = 1 << 16

// Column names.
const (
	ColumnTime = "time"
	ColumnData = "data"
)

// Metadata keys carried on the schema.
const (
	MetaGID              = "gid"
	MetaTitle            = "title"
	MetaType             = "time_series_type"
	MetaTopology         = "topology_gid"
	MetaShape            = "shape"
	MetaSamplePeriod     = "sample_period"
	MetaSamplePeriodUnit = "sample_period_unit"
	MetaLabelsOrdering   = "labels_ordering"
	MetaLabelsDimensions = "labels_dimensions"
)

// Schema returns the Arrow schema for a series with the given channel count.
func Schema(ts *store.TimeSeriesIndex, channels int) *arrow.Schema {
	topo := ts.ConnectivityGID
	if topo == "" {
		topo = ts.SensorsGID
	}
	md := arrow.NewMetadata(
		[]string{MetaGID, MetaTitle, MetaType, MetaTopology, MetaShape, MetaSamplePeriod, MetaSamplePeriodUnit, MetaLabelsOrdering, MetaLabelsDimensions},
		[]string{ts.GID, ts.Title, ts.TimeSeriesType, topo, formatShape(ts.Shape()),
			strconv.FormatFloat(ts.SamplePeriod, 'g', -1, 64), ts.SamplePeriodUnit,
			ts.LabelsOrdering, ts.LabelsDimensions},
	)
	return arrow.NewSchema([]arrow.Field{
		{Name: ColumnTime, Type: arrow.PrimitiveTypes.Float64},
		{Name: ColumnData, Type: arrow.FixedSizeListOf(int32(channels), arrow.PrimitiveTypes.Float64)},
	}, &md)
}

// Write encodes a canonical (time, 1, channel, 1) array and its time axis to w.
func Write(w io.Writer, ts *store.TimeSeriesIndex, data *ndarray.Array, times []float64) error {
	shape := data.Shape()
	if len(shape) != 4 || shape[1] != 1 || shape[3] != 1 {
		return fmt.Errorf("expected a (time, 1, channel, 1) array, got shape %v", shape)
	}
	samples, channels := shape[0], shape[2]
	if len(times) != samples {
		return fmt.Errorf("time axis has %d values for %d samples", len(times), samples)
	}

	mem := memory.NewGoAllocator()
	schema := Schema(ts, channels)
	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("creating arrow writer: %w", err)
	}

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	timeB := b.Field(0).(*array.Float64Builder)
	listB := b.Field(1).(*array.FixedSizeListBuilder)
	valB := listB.ValueBuilder().(*array.Float64Builder)

	values := data.Data()
	for start := 0; start < samples; start += batchRows {
		end := min(start+batchRows, samples)
		timeB.AppendValues(times[start:end], nil)
		for i := start; i < end; i++ {
			listB.Append(true)
			valB.AppendValues(values[i*channels:(i+1)*channels], nil)
		}
		rec := b.NewRecord()
		err := fw.Write(rec)
		rec.Release()
		if err != nil {
			fw.Close()
			return fmt.Errorf("writing record batch: %w", err)
		}
	}
	return fw.Close()
}

// WriteFile writes the series to path, removing the file on failure.
func WriteFile(path string, ts *store.TimeSeriesIndex, data *ndarray.Array, times []float64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return Write(f, ts, data, times)
}

// Table is an exported file read back into memory.
type Table struct {
	Metadata map[string]string
	Times    []float64
	Rows     [][]float64
}

// ReadFile decodes a file written by WriteFile.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("opening arrow file: %w", err)
	}
	defer r.Close()

	md := r.Schema().Metadata()
	t := &Table{Metadata: make(map[string]string, md.Len())}
	for i, k := range md.Keys() {
		t.Metadata[k] = md.Values()[i]
	}

	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, fmt.Errorf("reading record batch %d: %w", i, err)
		}
		times, ok := rec.Column(0).(*array.Float64)
		if !ok {
			return nil, errors.New("time column is not float64")
		}
		lists, ok := rec.Column(1).(*array.FixedSizeList)
		if !ok {
			return nil, errors.New("data column is not a fixed size list")
		}
		width := int(lists.DataType().(*arrow.FixedSizeListType).Len())
		vals := lists.ListValues().(*array.Float64).Float64Values()
		offset := lists.Offset() * width
		for j := 0; j < int(rec.NumRows()); j++ {
			t.Times = append(t.Times, times.Value(j))
			row := make([]float64, width)
			copy(row, vals[offset+j*width:offset+(j+1)*width])
			t.Rows = append(t.Rows, row)
		}
	}
	return t, nil
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
