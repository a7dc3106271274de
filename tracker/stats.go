package tracker

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const metersPerNauticalMile = 1852.0

// FilterStats counts rows by the filter step that dropped them.
type FilterStats struct {
	Rows         int
	OtherVessel  int
	Incomplete   int
	WrongWeekday int
	OutsideBox   int
	Kept         int
}

func (s *FilterStats) Add(o FilterStats) {
	s.Rows += o.Rows
	s.OtherVessel += o.OtherVessel
	s.Incomplete += o.Incomplete
	s.WrongWeekday += o.WrongWeekday
	s.OutsideBox += o.OutsideBox
	s.Kept += o.Kept
}

// FileStats is the filter outcome for one source file.
type FileStats struct {
	Path     string
	Batches  int
	Filter   FilterStats
	Duration time.Duration
}

// DaySummary describes one day group of the output.
type DaySummary struct {
	Day        time.Time
	Points     int
	First      time.Time
	Last       time.Time
	DistanceNM float64
}

func SummarizeDays(days []DayGroup) []DaySummary {
	summaries := make([]DaySummary, 0, len(days))
	for _, g := range days {
		s := DaySummary{Day: g.Day, Points: len(g.Points)}
		if len(g.Points) > 0 {
			s.First = g.Points[0].Local
			s.Last = g.Points[len(g.Points)-1].Local
		}
		for i := 1; i < len(g.Points); i++ {
			prev := orb.Point{g.Points[i-1].Longitude, g.Points[i-1].Latitude}
			cur := orb.Point{g.Points[i].Longitude, g.Points[i].Latitude}
			s.DistanceNM += geo.Distance(prev, cur) / metersPerNauticalMile
		}
		summaries = append(summaries, s)
	}
	return summaries
}

func logFilterStats(logger *log.Logger, s FilterStats) {
	logger.Printf("Rows scanned: %s", formatNumber(int64(s.Rows)))
	logger.Printf("  other vessels: %s", formatNumber(int64(s.OtherVessel)))
	logger.Printf("  incomplete:    %s", formatNumber(int64(s.Incomplete)))
	logger.Printf("  wrong weekday: %s", formatNumber(int64(s.WrongWeekday)))
	logger.Printf("  outside box:   %s", formatNumber(int64(s.OutsideBox)))
	logger.Printf("Rows kept: %s", formatNumber(int64(s.Kept)))
}

func logDaySummaries(logger *log.Logger, days []DaySummary) {
	for _, d := range days {
		logger.Printf("  %s  %4d points  %s - %s  %.1f nm",
			d.Day.Format("2006-01-02"), d.Points,
			d.First.Format("15:04"), d.Last.Format("15:04"), d.DistanceNM)
	}
}

func banner(logger *log.Logger, title string) {
	logger.Println(strings.Repeat("=", 60))
	logger.Println(title)
	logger.Println(strings.Repeat("=", 60))
}

func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(char)
	}
	return b.String()
}
