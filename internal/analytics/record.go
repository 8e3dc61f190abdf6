// Package analytics turns raw call-history records into dashboard metrics.
//
// Every view goes through Normalize first, so duration units, timezone
// conversion and the answered/missed rules are decided in one place.
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/calldash/server/internal/model"
)

// Record is a normalized call.
type Record struct {
	Nurse       string
	Start       time.Time // UTC
	End         time.Time // UTC, Start + duration
	StartLocal  time.Time
	EndLocal    time.Time
	DurationMin float64
	Direction   string
	Caller      string
	Callee      string
}

// Answered reports a call with talk time.
func (r Record) Answered() bool { return r.DurationMin > 0 }

// Missed reports a call that never connected, in either direction.
func (r Record) Missed() bool { return r.DurationMin == 0 }

// MissedInbound reports a missed call that came in to the nurse.
func (r Record) MissedInbound() bool {
	return r.Missed() && r.Direction == model.DirectionInbound
}

var startLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Normalize converts provider calls to records in loc, sorted by start time.
// Calls without a parseable start time are dropped. The duration comes from
// the provider's millisecond field and falls back to endTime - startTime.
func Normalize(calls []model.Call, nurse string, loc *time.Location) []Record {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]Record, 0, len(calls))
	for _, c := range calls {
		start, ok := parseTimestamp(c.StartTime)
		if !ok {
			continue
		}

		var minutes float64
		switch {
		case c.Duration.Valid:
			minutes = c.Duration.Value / 60000
		default:
			if end, ok := parseTimestamp(c.EndTime); ok {
				minutes = end.Sub(start).Minutes()
			}
		}
		if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
			minutes = 0
		}

		end := start.Add(time.Duration(minutes * float64(time.Minute)))
		direction := strings.ToUpper(strings.TrimSpace(c.Direction))
		if direction == "" {
			direction = model.DirectionUnknown
		}

		r := Record{
			Nurse:       nurse,
			Start:       start,
			End:         end,
			StartLocal:  start.In(loc),
			EndLocal:    end.In(loc),
			DurationMin: minutes,
			Direction:   direction,
		}
		if c.Caller != nil {
			r.Caller = c.Caller.Number
		}
		if c.Callee != nil {
			r.Callee = c.Callee.Number
		}
		out = append(out, r)
	}
	SortByStart(out)
	return out
}

// SortByStart orders records chronologically, keeping input order for ties.
func SortByStart(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Start.Before(records[j].Start)
	})
}
