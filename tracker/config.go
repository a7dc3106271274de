package tracker

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/paulmach/orb"
)

const (
	DefaultBatchSize   = 1000000
	DefaultBucketWidth = 60 * time.Second
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	MMSI        int64         `json:"mmsi"`
	Box         BoundingBox   `json:"box"`
	Timezone    string        `json:"timezone"`
	Weekday     time.Weekday  `json:"weekday"`
	BucketWidth time.Duration `json:"bucket_width"`
	BatchSize   int           `json:"batch_size"`

	Patterns   []string `json:"patterns"`
	Columns    Columns  `json:"columns"`
	OutputPath string   `json:"output_path"`
	Note       string   `json:"note"`
}

// Columns names the input columns the reader projects. Header matching is
// case-insensitive.
type Columns struct {
	MMSI       string `json:"mmsi"`
	Timestamp  string `json:"timestamp"`
	Latitude   string `json:"latitude"`
	Longitude  string `json:"longitude"`
	SOG        string `json:"sog"`
	VesselName string `json:"vessel_name"`
	CallSign   string `json:"call_sign"`
}

// BoundingBox is an inclusive lat/lon rectangle.
type BoundingBox struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// Bound returns the box in orb's lon/lat order.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.LonMin, b.LatMin},
		Max: orb.Point{b.LonMax, b.LatMax},
	}
}

func (b BoundingBox) Contains(lat, lon float64) bool {
	return b.Bound().Contains(orb.Point{lon, lat})
}

// DefaultColumns matches the daily AIS CSV and Parquet files published from 2025 on.
func DefaultColumns() Columns {
	return Columns{
		MMSI:       "mmsi",
		Timestamp:  "base_date_time",
		Latitude:   "latitude",
		Longitude:  "longitude",
		SOG:        "sog",
		VesselName: "vessel_name",
		CallSign:   "call_sign",
	}
}

// LegacyColumns matches the pre-2025 AIS files (MMSI,BaseDateTime,LAT,LON,...).
func LegacyColumns() Columns {
	return Columns{
		MMSI:       "MMSI",
		Timestamp:  "BaseDateTime",
		Latitude:   "LAT",
		Longitude:  "LON",
		SOG:        "SOG",
		VesselName: "VesselName",
		CallSign:   "CallSign",
	}
}

func (c Columns) names() []string {
	return []string{c.MMSI, c.Timestamp, c.Latitude, c.Longitude, c.SOG, c.VesselName, c.CallSign}
}

func DefaultConfig() Config {
	return Config{
		MMSI: 367144000,
		Box: BoundingBox{
			LatMin: 48.68,
			LatMax: 48.78,
			LonMin: -122.62,
			LonMax: -122.45,
		},
		Timezone:    "America/Los_Angeles",
		Weekday:     time.Friday,
		BucketWidth: DefaultBucketWidth,
		BatchSize:   DefaultBatchSize,
		Patterns:    []string{"ais-2025-*.csv", "ais-2025-*.csv.zst", "ais-2025-*.parquet"},
		Columns:     DefaultColumns(),
		OutputPath:  "columbia_tracks_summer_fridays_2025.json",
		Note:        "AIS points for Columbia on local Fridays in summer 2025; downsampled to ~1/min.",
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Timezone) == "" {
		return fmt.Errorf("%w: empty timezone", ErrInvalidConfig)
	}
	if c.Weekday < time.Sunday || c.Weekday > time.Saturday {
		return fmt.Errorf("%w: weekday %d out of range", ErrInvalidConfig, c.Weekday)
	}
	if c.Box.LatMin > c.Box.LatMax || c.Box.LonMin > c.Box.LonMax {
		return fmt.Errorf("%w: inverted bounding box %+v", ErrInvalidConfig, c.Box)
	}
	if c.BucketWidth < time.Second {
		return fmt.Errorf("%w: bucket width %s below one second", ErrInvalidConfig, c.BucketWidth)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size %d", ErrInvalidConfig, c.BatchSize)
	}
	if len(c.Patterns) == 0 {
		return fmt.Errorf("%w: no source patterns", ErrInvalidConfig)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("%w: empty output path", ErrInvalidConfig)
	}
	for _, name := range c.Columns.names() {
		if name == "" {
			return fmt.Errorf("%w: empty column name in %+v", ErrInvalidConfig, c.Columns)
		}
	}
	return nil
}

// Location loads the target time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
