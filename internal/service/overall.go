package service

import (
	"context"
	"time"

	"github.com/calldash/server/internal/analytics"
	logx "github.com/calldash/server/pkg/logger"
)

// OverallReport is the all-nurses view.
type OverallReport struct {
	Range         string                   `json:"range"`
	WindowStart   string                   `json:"window_start"`
	WindowEnd     string                   `json:"window_end"`
	Empty         bool                     `json:"empty"`
	Summary       analytics.Summary        `json:"summary"`
	Tiles         Tiles                    `json:"tiles"`
	DailyVolume   []analytics.DayVolume    `json:"daily_volume"`
	DailyTalkTime []analytics.DayValue     `json:"daily_talk_time"`
	NurseOutcomes []analytics.NurseOutcome `json:"nurse_outcomes"`
	MissedInbound []CallRow                `json:"missed_inbound"`
}

// Overall builds the all-nurses report for r.
func (s *Reports) Overall(ctx context.Context, r analytics.DateRange) (*OverallReport, error) {
	started := time.Now()
	w := analytics.ShiftWindow(r, s.cfg.Location)

	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.fetchAll(ctx, users, w)
	if err != nil {
		return nil, err
	}

	rep := &OverallReport{
		Range:       r.String(),
		WindowStart: w.StartParam(),
		WindowEnd:   w.EndParam(),
		Empty:       len(records) == 0,
	}
	if !rep.Empty {
		rep.Summary = analytics.Summarize(records)
		rep.Tiles = toTiles(rep.Summary)
		rep.DailyVolume = analytics.FillVolume(analytics.DailyVolume(records), r.Days())
		rep.DailyTalkTime = analytics.DailyTalkTime(records)
		rep.NurseOutcomes = analytics.NurseOutcomes(records)
		rep.MissedInbound = toRows(analytics.MissedInbound(records))
	}

	observe("overall", started)
	logx.Debug().
		Str("range", rep.Range).
		Int("users", len(users)).
		Int("calls", len(records)).
		Dur("took", time.Since(started)).
		Msg("built overall report")
	return rep, nil
}
