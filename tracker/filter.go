package tracker

import (
	"strings"
	"time"
)

// Filter holds the selection criteria applied to each row.
type Filter struct {
	MMSI    int64
	Loc     *time.Location
	Weekday time.Weekday
	Box     BoundingBox
}

func NewFilter(cfg Config, loc *time.Location) Filter {
	return Filter{
		MMSI:    cfg.MMSI,
		Loc:     loc,
		Weekday: cfg.Weekday,
		Box:     cfg.Box,
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp reads an ISO-8601 style timestamp. Values without an offset
// are taken as UTC. The second return is false when nothing matches.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FilterBatch returns the rows of one batch that pass every criterion, in input
// order. The steps run in a fixed order and drops are counted against the first
// step that rejects a row. rows is not modified.
func FilterBatch(rows []RawRow, f Filter, stats *FilterStats) []Observation {
	if stats == nil {
		stats = &FilterStats{}
	}
	stats.Rows += len(rows)

	var kept []Observation
	for i := range rows {
		row := &rows[i]

		if !row.MMSI.Valid || row.MMSI.Int64 != f.MMSI {
			stats.OtherVessel++
			continue
		}

		instant, ok := parseTimestamp(row.Timestamp)
		if !ok || !row.Latitude.Valid || !row.Longitude.Valid || !row.SOG.Valid {
			stats.Incomplete++
			continue
		}
		local := instant.In(f.Loc)

		if local.Weekday() != f.Weekday {
			stats.WrongWeekday++
			continue
		}

		if !f.Box.Contains(row.Latitude.Float64, row.Longitude.Float64) {
			stats.OutsideBox++
			continue
		}

		kept = append(kept, Observation{
			MMSI:       row.MMSI.Int64,
			Time:       instant,
			Local:      local,
			Latitude:   row.Latitude.Float64,
			Longitude:  row.Longitude.Float64,
			SOG:        row.SOG.Float64,
			VesselName: row.VesselName,
			CallSign:   row.CallSign,
		})
	}

	stats.Kept += len(kept)
	return kept
}
