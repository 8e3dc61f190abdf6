package analytics

import (
	"math"

	"github.com/calldash/server/internal/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WebhookSummary is the compact per-user payload served to integrations.
// Missed counts every unconnected call regardless of direction.
type WebhookSummary struct {
	User          string  `json:"user" yaml:"user"`
	TotalCalls    int     `json:"total_calls" yaml:"total_calls"`
	AnsweredCalls int     `json:"answered_calls" yaml:"answered_calls"`
	MissedCalls   int     `json:"missed_calls" yaml:"missed_calls"`
	AvgDuration   float64 `json:"avg_duration" yaml:"avg_duration"`
	TotalDuration float64 `json:"total_duration" yaml:"total_duration"`
}

// SummarizeForWebhook works on raw provider calls. Only the reported duration
// counts: a call without one is missed even when it has an end time, and
// every call is counted whether or not its start time parses.
func SummarizeForWebhook(user string, calls []model.Call) WebhookSummary {
	s := WebhookSummary{User: user, TotalCalls: len(calls)}
	var answered []float64
	for _, c := range calls {
		var minutes float64
		if c.Duration.Valid && !math.IsNaN(c.Duration.Value) {
			minutes = c.Duration.Value / 60000
		}
		switch {
		case minutes > 0:
			answered = append(answered, minutes)
		case minutes == 0:
			s.MissedCalls++
		}
	}
	s.AnsweredCalls = len(answered)
	if len(answered) > 0 {
		s.AvgDuration = Round2(stat.Mean(answered, nil))
		s.TotalDuration = Round2(floats.Sum(answered))
	}
	return s
}
