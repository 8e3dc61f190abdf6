package analytics

import (
	"fmt"
	"math"
)

// FormatMinutes renders minutes as "H hr M min", flooring both parts.
func FormatMinutes(minutes float64) string {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes < 0 {
		minutes = 0
	}
	hours := int(minutes / 60)
	mins := int(math.Mod(minutes, 60))
	return fmt.Sprintf("%d hr %d min", hours, mins)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
