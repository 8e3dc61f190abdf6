package service

import (
	"context"
	"fmt"
	"time"

	"github.com/calldash/server/internal/analytics"
	"github.com/calldash/server/internal/model"
	logx "github.com/calldash/server/pkg/logger"
)

// NurseReport is the single-nurse view.
type NurseReport struct {
	Nurse            NurseOption            `json:"nurse"`
	Range            string                 `json:"range"`
	ClockIn          string                 `json:"clock_in"`
	ClockOut         string                 `json:"clock_out"`
	NoCalls          bool                   `json:"no_calls"`
	Empty            bool                   `json:"empty"`
	Summary          analytics.Summary      `json:"summary"`
	Tiles            Tiles                  `json:"tiles"`
	MissedInbound    []CallRow              `json:"missed_inbound"`
	Longest          *CallRow               `json:"longest,omitempty"`
	Gaps             []analytics.Gap        `json:"gaps"`
	Logs             []CallRow              `json:"logs"`
	DailyOutcomes    []analytics.DayOutcome `json:"daily_outcomes"`
	DailyAvgDuration []analytics.DayValue   `json:"daily_avg_duration"`
	GapAnalysis      analytics.GapReport    `json:"gap_analysis"`
}

// NurseQuery selects the calls of one nurse.
type NurseQuery struct {
	UserKey  string
	Range    analytics.DateRange
	ClockIn  analytics.Clock
	ClockOut analytics.Clock
}

// Nurse builds the report for a single nurse, restricted to weekday calls
// inside the clocked-in hours.
func (s *Reports) Nurse(ctx context.Context, q NurseQuery) (*NurseReport, error) {
	started := time.Now()
	u, err := s.findUser(ctx, func(u model.User) bool { return u.UserKey == q.UserKey })
	if err != nil {
		return nil, err
	}

	w := analytics.ShiftWindow(q.Range, s.cfg.Location)
	calls, err := s.source.ListCalls(ctx, u.UserKey, w.StartParam(), w.EndParam())
	if err != nil {
		return nil, fmt.Errorf("list calls for %s: %w", u.UserKey, err)
	}

	rep := &NurseReport{
		Nurse:    NurseOption{Key: u.UserKey, Name: u.DisplayName()},
		Range:    q.Range.String(),
		ClockIn:  q.ClockIn.String(),
		ClockOut: q.ClockOut.String(),
		NoCalls:  len(calls) == 0,
	}
	records := analytics.FilterWorkHours(
		analytics.Normalize(calls, u.Label(), s.cfg.Location),
		q.ClockIn, q.ClockOut,
	)
	rep.Empty = len(records) == 0

	if !rep.Empty {
		rep.Summary = analytics.Summarize(records)
		rep.Tiles = toTiles(rep.Summary)
		rep.MissedInbound = toRows(analytics.MissedInbound(records))
		if longest, ok := analytics.Longest(records); ok {
			row := toRow(longest)
			rep.Longest = &row
		}
		rep.GapAnalysis = analytics.AnalyzeGaps(records, s.cfg.GapThreshold)
		rep.Gaps = rep.GapAnalysis.Flagged
		rep.Logs = toRows(records)
		rep.DailyOutcomes = analytics.DailyOutcomes(records)
		rep.DailyAvgDuration = analytics.DailyAvgDuration(records)
	}

	observe("nurse", started)
	logx.Debug().
		Str("userKey", u.UserKey).
		Str("range", rep.Range).
		Int("fetched", len(calls)).
		Int("kept", len(records)).
		Msg("built nurse report")
	return rep, nil
}
