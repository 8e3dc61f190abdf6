package service

import "github.com/calldash/server/internal/analytics"

// CallRow is a call formatted for tables.
type CallRow struct {
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Duration    string  `json:"duration"`
	DurationMin float64 `json:"duration_minutes"`
	Direction   string  `json:"direction"`
	Nurse       string  `json:"nurse,omitempty"`
	Caller      string  `json:"caller,omitempty"`
	Callee      string  `json:"callee,omitempty"`
}

func toRow(r analytics.Record) CallRow {
	return CallRow{
		Start:       r.StartLocal.Format(analytics.LocalLayout),
		End:         r.EndLocal.Format(analytics.LocalLayout),
		Duration:    analytics.FormatMinutes(r.DurationMin),
		DurationMin: r.DurationMin,
		Direction:   r.Direction,
		Nurse:       r.Nurse,
		Caller:      r.Caller,
		Callee:      r.Callee,
	}
}

func toRows(records []analytics.Record) []CallRow {
	out := make([]CallRow, 0, len(records))
	for _, r := range records {
		out = append(out, toRow(r))
	}
	return out
}

// Tiles are the five headline metrics, preformatted.
type Tiles struct {
	TotalCalls    int    `json:"total_calls"`
	AnsweredCalls int    `json:"answered_calls"`
	MissedInbound int    `json:"missed_inbound_calls"`
	TalkTime      string `json:"talk_time"`
	AvgDuration   string `json:"avg_duration"`
}

func toTiles(s analytics.Summary) Tiles {
	return Tiles{
		TotalCalls:    s.TotalCalls,
		AnsweredCalls: s.AnsweredCalls,
		MissedInbound: s.MissedInbound,
		TalkTime:      analytics.FormatMinutes(s.TalkTimeMin),
		AvgDuration:   analytics.FormatMinutes(s.AvgDurationMin),
	}
}
