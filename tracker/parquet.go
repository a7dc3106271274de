package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
)

type parquetBatchReader struct {
	path      string
	pf        *file.Reader
	records   pqarrow.RecordReader
	names     Columns
	batchSize int
	pending   []RawRow
	done      bool
}

func openParquet(ctx context.Context, path string, cols Columns, batchSize int) (*parquetBatchReader, error) {
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}

	names, indices, err := resolveParquetColumns(pf, cols)
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	arrowReader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: int64(batchSize)}, memory.NewGoAllocator())
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("failed to create arrow reader for %s: %w", path, err)
	}

	records, err := arrowReader.GetRecordReader(ctx, indices, nil)
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("failed to get record reader for %s: %w", path, err)
	}

	return &parquetBatchReader{
		path:      path,
		pf:        pf,
		records:   records,
		names:     names,
		batchSize: batchSize,
	}, nil
}

// resolveParquetColumns finds the leaf columns to project, returning the names
// exactly as the file spells them.
func resolveParquetColumns(pf *file.Reader, cols Columns) (Columns, []int, error) {
	schema := pf.MetaData().Schema
	header := make([]string, schema.NumColumns())
	for i := range header {
		header[i] = schema.Column(i).Name()
	}

	idx, err := resolveColumns(header, cols)
	if err != nil {
		return Columns{}, nil, err
	}

	positions := []int{idx.mmsi, idx.timestamp, idx.lat, idx.lon, idx.sog, idx.name, idx.call}
	names := Columns{
		MMSI:       header[idx.mmsi],
		Timestamp:  header[idx.timestamp],
		Latitude:   header[idx.lat],
		Longitude:  header[idx.lon],
		SOG:        header[idx.sog],
		VesselName: header[idx.name],
		CallSign:   header[idx.call],
	}

	seen := make(map[int]bool, len(positions))
	indices := make([]int, 0, len(positions))
	for _, p := range positions {
		if !seen[p] {
			seen[p] = true
			indices = append(indices, p)
		}
	}
	return names, indices, nil
}

func (r *parquetBatchReader) Next() ([]RawRow, error) {
	batch := make([]RawRow, 0, min(r.batchSize, 65536))

	for len(batch) < r.batchSize {
		if len(r.pending) == 0 {
			if r.done {
				break
			}
			if err := r.readRecord(); err != nil {
				return nil, err
			}
			continue
		}

		n := min(r.batchSize-len(batch), len(r.pending))
		batch = append(batch, r.pending[:n]...)
		r.pending = r.pending[n:]
	}

	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// readRecord converts the next arrow record into pending rows.
func (r *parquetBatchReader) readRecord() error {
	if !r.records.Next() {
		r.done = true
		if err := r.records.Err(); err != nil && err != io.EOF {
			return fmt.Errorf("failed to read %s: %w", r.path, err)
		}
		return nil
	}

	rec := r.records.Record()
	colIndex := make(map[string]int)
	for i, f := range rec.Schema().Fields() {
		colIndex[f.Name] = i
	}

	mmsi := rec.Column(colIndex[r.names.MMSI])
	ts := rec.Column(colIndex[r.names.Timestamp])
	lat := rec.Column(colIndex[r.names.Latitude])
	lon := rec.Column(colIndex[r.names.Longitude])
	sog := rec.Column(colIndex[r.names.SOG])
	name := rec.Column(colIndex[r.names.VesselName])
	call := rec.Column(colIndex[r.names.CallSign])

	rows := int(rec.NumRows())
	r.pending = make([]RawRow, rows)
	for i := 0; i < rows; i++ {
		r.pending[i] = RawRow{
			MMSI:       arrowInt(mmsi, i),
			Timestamp:  arrowTimestamp(ts, i),
			Latitude:   arrowFloat(lat, i),
			Longitude:  arrowFloat(lon, i),
			SOG:        arrowFloat(sog, i),
			VesselName: arrowText(name, i),
			CallSign:   arrowText(call, i),
		}
	}
	return nil
}

func (r *parquetBatchReader) Close() error {
	if r.records != nil {
		r.records.Release()
		r.records = nil
	}
	if r.pf == nil {
		return nil
	}
	err := r.pf.Close()
	r.pf = nil
	return err
}

func arrowInt(col arrow.Array, i int) sql.NullInt64 {
	if col.IsNull(i) {
		return sql.NullInt64{}
	}
	switch c := col.(type) {
	case *array.Int64:
		return sql.NullInt64{Int64: c.Value(i), Valid: true}
	case *array.Int32:
		return sql.NullInt64{Int64: int64(c.Value(i)), Valid: true}
	case *array.Uint32:
		return sql.NullInt64{Int64: int64(c.Value(i)), Valid: true}
	case *array.Uint64:
		if c.Value(i) > math.MaxInt64 {
			return sql.NullInt64{}
		}
		return sql.NullInt64{Int64: int64(c.Value(i)), Valid: true}
	case *array.Float64:
		return parseInt(strconv.FormatFloat(c.Value(i), 'f', -1, 64))
	case *array.String:
		return parseInt(c.Value(i))
	case *array.LargeString:
		return parseInt(c.Value(i))
	}
	return sql.NullInt64{}
}

func arrowFloat(col arrow.Array, i int) sql.NullFloat64 {
	if col.IsNull(i) {
		return sql.NullFloat64{}
	}
	var v float64
	switch c := col.(type) {
	case *array.Float64:
		v = c.Value(i)
	case *array.Float32:
		v = float64(c.Value(i))
	case *array.Int64:
		v = float64(c.Value(i))
	case *array.Int32:
		v = float64(c.Value(i))
	case *array.String:
		return parseFloat(c.Value(i))
	case *array.LargeString:
		return parseFloat(c.Value(i))
	default:
		return sql.NullFloat64{}
	}
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func arrowText(col arrow.Array, i int) sql.NullString {
	if col.IsNull(i) {
		return sql.NullString{}
	}
	switch c := col.(type) {
	case *array.String:
		return parseText(c.Value(i))
	case *array.LargeString:
		return parseText(c.Value(i))
	}
	return sql.NullString{}
}

// arrowTimestamp renders the value as text for the filter to parse. Typed
// timestamps become RFC 3339 in UTC.
func arrowTimestamp(col arrow.Array, i int) string {
	if col.IsNull(i) {
		return ""
	}
	switch c := col.(type) {
	case *array.String:
		return strings.TrimSpace(c.Value(i))
	case *array.LargeString:
		return strings.TrimSpace(c.Value(i))
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(i).ToTime(unit).UTC().Format(time.RFC3339Nano)
	}
	return ""
}
