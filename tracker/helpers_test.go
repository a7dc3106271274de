package tracker

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

const csvHeader = "mmsi,base_date_time,latitude,longitude,sog,vessel_name,call_sign"

// 2025-07-04 is a Friday; Los Angeles is on PDT (-07:00).
const (
	fridayMorningUTC = "2025-07-04T17:00:00" // 10:00 local
	thursdayNightUTC = "2025-07-04T05:00:00" // Thursday 22:00 local
	fridayNightUTC   = "2025-07-05T03:00:00" // Friday 20:00 local
)

func losAngeles(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

func writeCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeZstCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

// fixtureRow is one row of a parquet fixture. Empty name or call sign is
// written as null.
type fixtureRow struct {
	MMSI int64
	Time string
	Lat  float64
	Lon  float64
	SOG  float64
	Name string
	Call string
}

// writeParquet writes rows with a typed timestamp column when typedTime is set
// and a string column otherwise.
func writeParquet(t *testing.T, dir, name string, typedTime bool, rowGroupLen int64, rows []fixtureRow) string {
	t.Helper()

	var tsType arrow.DataType = arrow.BinaryTypes.String
	if typedTime {
		tsType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "mmsi", Type: arrow.PrimitiveTypes.Int64},
		{Name: "base_date_time", Type: tsType},
		{Name: "latitude", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "longitude", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "sog", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "vessel_name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "call_sign", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()

	for _, r := range rows {
		b.Field(0).(*array.Int64Builder).Append(r.MMSI)
		if typedTime {
			ts, err := time.ParseInLocation("2006-01-02T15:04:05", r.Time, time.UTC)
			require.NoError(t, err)
			b.Field(1).(*array.TimestampBuilder).Append(arrow.Timestamp(ts.UnixMicro()))
		} else {
			b.Field(1).(*array.StringBuilder).Append(r.Time)
		}
		b.Field(2).(*array.Float64Builder).Append(r.Lat)
		b.Field(3).(*array.Float64Builder).Append(r.Lon)
		b.Field(4).(*array.Float64Builder).Append(r.SOG)
		appendOptional(b.Field(5).(*array.StringBuilder), r.Name)
		appendOptional(b.Field(6).(*array.StringBuilder), r.Call)
	}

	rec := b.NewRecord()
	defer rec.Release()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithMaxRowGroupLength(rowGroupLen))
	w, err := pqarrow.NewFileWriter(schema, f, props, pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())
	return path
}

func appendOptional(b *array.StringBuilder, s string) {
	if s == "" {
		b.AppendNull()
		return
	}
	b.Append(s)
}

func (r fixtureRow) csvLine() string {
	return strings.Join([]string{
		strconv.FormatInt(r.MMSI, 10),
		r.Time,
		strconv.FormatFloat(r.Lat, 'f', -1, 64),
		strconv.FormatFloat(r.Lon, 'f', -1, 64),
		strconv.FormatFloat(r.SOG, 'f', -1, 64),
		r.Name,
		r.Call,
	}, ",")
}

func csvLines(rows []fixtureRow) []string {
	lines := []string{csvHeader}
	for _, r := range rows {
		lines = append(lines, r.csvLine())
	}
	return lines
}
