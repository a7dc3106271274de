package tracker

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	pointTimeLayout = "2006-01-02T15:04:05"
	dayLayout       = "2006-01-02 15:04:05-07:00"
)

// Document is the JSON snapshot written at the end of a run.
type Document struct {
	Meta Meta  `json:"meta"`
	Days []Day `json:"days"`
}

type Meta struct {
	MMSI     int64   `json:"mmsi"`
	LatMin   float64 `json:"lat_min"`
	LatMax   float64 `json:"lat_max"`
	LonMin   float64 `json:"lon_min"`
	LonMax   float64 `json:"lon_max"`
	Timezone string  `json:"timezone"`
	Note     string  `json:"note"`
}

type Day struct {
	Day    string  `json:"friday_pt"`
	Points []Point `json:"points"`
}

type Point struct {
	T    string  `json:"t"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	SOG  float64 `json:"sog"`
	Name string  `json:"name"`
	Call string  `json:"call"`
}

func BuildDocument(cfg Config, days []DayGroup) Document {
	doc := Document{
		Meta: Meta{
			MMSI:     cfg.MMSI,
			LatMin:   cfg.Box.LatMin,
			LatMax:   cfg.Box.LatMax,
			LonMin:   cfg.Box.LonMin,
			LonMax:   cfg.Box.LonMax,
			Timezone: cfg.Timezone,
			Note:     cfg.Note,
		},
		Days: make([]Day, 0, len(days)),
	}

	for _, g := range days {
		day := Day{
			Day:    formatDay(g.Day),
			Points: make([]Point, 0, len(g.Points)),
		}
		for _, o := range g.Points {
			day.Points = append(day.Points, Point{
				T:    formatPointTime(o.Local),
				Lat:  o.Latitude,
				Lon:  o.Longitude,
				SOG:  o.SOG,
				Name: textOrEmpty(o.VesselName),
				Call: textOrEmpty(o.CallSign),
			})
		}
		doc.Days = append(doc.Days, day)
	}

	return doc
}

// formatPointTime renders ISO-8601 with the local offset. The fraction is
// printed only when present: six digits, or nine when there are sub-microsecond
// digits.
func formatPointTime(t time.Time) string {
	s := t.Format(pointTimeLayout)
	if ns := t.Nanosecond(); ns != 0 {
		if ns%1000 == 0 {
			s += fmt.Sprintf(".%06d", ns/1000)
		} else {
			s += fmt.Sprintf(".%09d", ns)
		}
	}
	return s + t.Format("-07:00")
}

func formatDay(t time.Time) string {
	return t.Format(dayLayout)
}

func textOrEmpty(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

// WriteDocument encodes doc into a temporary file beside path and renames it
// into place, so a failed write never leaves a partial document.
func WriteDocument(path string, doc Document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp output: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
