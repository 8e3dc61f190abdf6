package analytics

import (
	"github.com/calldash/server/internal/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the metric tiles shown at the top of each view.
type Summary struct {
	TotalCalls     int     `json:"total_calls" yaml:"total_calls"`
	AnsweredCalls  int     `json:"answered_calls" yaml:"answered_calls"`
	MissedInbound  int     `json:"missed_inbound_calls" yaml:"missed_inbound_calls"`
	MissedCalls    int     `json:"missed_calls" yaml:"missed_calls"`
	Incoming       int     `json:"incoming" yaml:"incoming"`
	Outgoing       int     `json:"outgoing" yaml:"outgoing"`
	TalkTimeMin    float64 `json:"talk_time_minutes" yaml:"talk_time_minutes"`
	AvgDurationMin float64 `json:"avg_duration_minutes" yaml:"avg_duration_minutes"`
}

func Summarize(records []Record) Summary {
	var (
		s        Summary
		answered []float64
	)
	s.TotalCalls = len(records)
	for _, r := range records {
		switch r.Direction {
		case model.DirectionInbound:
			s.Incoming++
		case model.DirectionOutbound:
			s.Outgoing++
		}
		if r.Answered() {
			answered = append(answered, r.DurationMin)
		}
		if r.Missed() {
			s.MissedCalls++
		}
		if r.MissedInbound() {
			s.MissedInbound++
		}
	}
	s.AnsweredCalls = len(answered)
	s.TalkTimeMin = floats.Sum(answered)
	if len(answered) > 0 {
		s.AvgDurationMin = stat.Mean(answered, nil)
	}
	return s
}

// Longest returns the answered call with the greatest duration. The earliest
// one wins a tie.
func Longest(records []Record) (Record, bool) {
	var (
		best  Record
		found bool
	)
	for _, r := range records {
		if !r.Answered() {
			continue
		}
		if !found || r.DurationMin > best.DurationMin {
			best, found = r, true
		}
	}
	return best, found
}

// MissedInbound returns missed inbound calls in chronological order.
func MissedInbound(records []Record) []Record {
	var out []Record
	for _, r := range records {
		if r.MissedInbound() {
			out = append(out, r)
		}
	}
	SortByStart(out)
	return out
}
