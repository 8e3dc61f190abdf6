package analytics

import (
	"testing"
	"time"

	"github.com/calldash/server/internal/model"
	"github.com/stretchr/testify/require"
)

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

// call builds a provider call starting at start (RFC3339) lasting ms.
func call(start string, ms float64, direction string) model.Call {
	return model.Call{
		StartTime: start,
		Duration:  model.Millis{Value: ms, Valid: true},
		Direction: direction,
		Caller:    &model.Party{Number: "+15550001"},
		Callee:    &model.Party{Number: "+15550002"},
	}
}

func minutes(m float64) float64 { return m * 60000 }
