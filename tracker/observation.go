package tracker

import (
	"database/sql"
	"time"
)

// RawRow is one input row projected onto the required columns. Numeric fields
// that were empty, null or unparseable are left invalid; the timestamp is kept
// as text and parsed by the filter.
type RawRow struct {
	MMSI       sql.NullInt64
	Timestamp  string
	Latitude   sql.NullFloat64
	Longitude  sql.NullFloat64
	SOG        sql.NullFloat64
	VesselName sql.NullString
	CallSign   sql.NullString
}

// Observation is a retained position report with its time converted to the
// target zone.
type Observation struct {
	MMSI       int64
	Time       time.Time // instant, UTC
	Local      time.Time // same instant in the target zone
	Latitude   float64
	Longitude  float64
	SOG        float64
	VesselName sql.NullString
	CallSign   sql.NullString
}
