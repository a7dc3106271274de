package tracker

import (
	"sort"
	"time"
)

// DayGroup is one local calendar day of retained observations, ascending by time.
type DayGroup struct {
	Day    time.Time // local midnight
	Points []Observation
}

type dedupKey struct {
	unixNano int64
	lat, lon float64
	sog      float64
}

type bucketKey struct {
	day    int64 // unix seconds of local midnight
	bucket int64
}

// Downsample sorts the accumulated observations, drops exact repeats and keeps
// the last observation of each (local day, time bucket). Observations with equal
// instants keep their read order, so the one read last wins a bucket. The
// result is grouped by local day, days and points ascending.
func Downsample(obs []Observation, bucketWidth time.Duration) []DayGroup {
	if len(obs) == 0 {
		return nil
	}
	width := int64(bucketWidth / time.Second)
	if width < 1 {
		width = int64(DefaultBucketWidth / time.Second)
	}

	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	seen := make(map[dedupKey]bool, len(sorted))
	unique := sorted[:0]
	for _, o := range sorted {
		k := dedupKey{o.Time.UnixNano(), o.Latitude, o.Longitude, o.SOG}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, o)
	}

	// Later observations overwrite earlier ones in the same bucket.
	slot := make(map[bucketKey]int)
	keys := make([]bucketKey, 0)
	last := make([]Observation, 0)
	for _, o := range unique {
		k := bucketKey{
			day:    localMidnight(o.Local).Unix(),
			bucket: floorDiv(o.Time.Unix(), width),
		}
		if i, ok := slot[k]; ok {
			last[i] = o
			continue
		}
		slot[k] = len(last)
		keys = append(keys, k)
		last = append(last, o)
	}

	// Points ascending by instant.
	order := make([]int, len(last))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return last[order[a]].Time.Before(last[order[b]].Time)
	})

	var days []DayGroup
	dayIndex := make(map[int64]int)
	for _, i := range order {
		o := last[i]
		d, ok := dayIndex[keys[i].day]
		if !ok {
			d = len(days)
			dayIndex[keys[i].day] = d
			days = append(days, DayGroup{Day: localMidnight(o.Local)})
		}
		days[d].Points = append(days[d].Points, o)
	}

	sort.SliceStable(days, func(a, b int) bool {
		return days[a].Day.Before(days[b].Day)
	})
	return days
}

// localMidnight floors t to the start of its calendar day in t's location.
func localMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
