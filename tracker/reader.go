package tracker

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var ErrMissingColumn = errors.New("missing required column")

// BatchReader yields a file's rows in batches of bounded size, in file order.
// Next returns io.EOF once the file is exhausted. Opening the same path again
// starts over from the first row.
type BatchReader interface {
	Next() ([]RawRow, error)
	Close() error
}

// OpenBatchReader picks a reader from the file extension: .parquet goes through
// arrow, everything else is read as CSV (zstd-compressed when it ends in .zst).
func OpenBatchReader(ctx context.Context, path string, cols Columns, batchSize int) (BatchReader, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return openParquet(ctx, path, cols, batchSize)
	default:
		return openCSV(path, cols, batchSize)
	}
}

// Tokens the AIS exports and their tooling use for a missing value.
var naValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true, "N/A": true,
	"NA": true, "NULL": true, "NaN": true, "None": true, "n/a": true, "nan": true, "null": true,
}

func parseText(s string) sql.NullString {
	if naValues[strings.TrimSpace(s)] {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseFloat(s string) sql.NullFloat64 {
	s = strings.TrimSpace(s)
	if naValues[s] {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func parseInt(s string) sql.NullInt64 {
	s = strings.TrimSpace(s)
	if naValues[s] {
		return sql.NullInt64{}
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sql.NullInt64{Int64: v, Valid: true}
	}
	// A column with gaps gets written as floats ("367144000.0").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}
}

// columnIndex holds the position of each required column in a header.
type columnIndex struct {
	mmsi, timestamp, lat, lon, sog, name, call int
}

func resolveColumns(header []string, cols Columns) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	idx, missing := lookupColumns(pos, cols)
	if missing == "" {
		return idx, nil
	}
	if legacy, legacyMissing := lookupColumns(pos, LegacyColumns()); legacyMissing == "" {
		return legacy, nil
	}
	return columnIndex{}, fmt.Errorf("%w: %s", ErrMissingColumn, missing)
}

func lookupColumns(pos map[string]int, cols Columns) (columnIndex, string) {
	names := cols.names()
	found := make([]int, len(names))
	for i, name := range names {
		p, ok := pos[strings.ToLower(name)]
		if !ok {
			return columnIndex{}, name
		}
		found[i] = p
	}
	return columnIndex{
		mmsi:      found[0],
		timestamp: found[1],
		lat:       found[2],
		lon:       found[3],
		sog:       found[4],
		name:      found[5],
		call:      found[6],
	}, ""
}

func (ci columnIndex) rawRow(rec []string) RawRow {
	return RawRow{
		MMSI:       parseInt(rec[ci.mmsi]),
		Timestamp:  strings.TrimSpace(rec[ci.timestamp]),
		Latitude:   parseFloat(rec[ci.lat]),
		Longitude:  parseFloat(rec[ci.lon]),
		SOG:        parseFloat(rec[ci.sog]),
		VesselName: parseText(rec[ci.name]),
		CallSign:   parseText(rec[ci.call]),
	}
}

type csvBatchReader struct {
	path      string
	file      *os.File
	zr        *zstd.Decoder
	reader    *csv.Reader
	index     columnIndex
	batchSize int
	done      bool
}

func openCSV(path string, cols Columns, batchSize int) (*csvBatchReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	var src io.Reader = bufio.NewReaderSize(f, 1<<20)
	var zr *zstd.Decoder
	if strings.HasSuffix(strings.ToLower(path), ".zst") {
		zr, err = zstd.NewReader(src)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd stream %s: %w", path, err)
		}
		src = zr
	}

	r := &csvBatchReader{
		path:      path,
		file:      f,
		zr:        zr,
		batchSize: batchSize,
	}

	r.reader = csv.NewReader(src)
	r.reader.ReuseRecord = true
	r.reader.LazyQuotes = true

	header, err := r.reader.Read()
	if err != nil {
		r.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("failed to read header of %s: empty file", path)
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	r.index, err = resolveColumns(header, cols)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return r, nil
}

func (r *csvBatchReader) Next() ([]RawRow, error) {
	if r.done {
		return nil, io.EOF
	}

	batch := make([]RawRow, 0, min(r.batchSize, 65536))
	for len(batch) < r.batchSize {
		rec, err := r.reader.Read()
		if err == io.EOF {
			r.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
		}
		batch = append(batch, r.index.rawRow(rec))
	}

	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

func (r *csvBatchReader) Close() error {
	if r.zr != nil {
		r.zr.Close()
		r.zr = nil
	}
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
