package dashboard

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/calldash/server/internal/analytics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// barHeights returns the height of each contiguous run of columns painted
// in the answered colour, left to right.
func barHeights(img image.Image) []int {
	b := img.Bounds()
	var (
		heights []int
		run     int
	)
	for x := b.Min.X; x < b.Max.X; x++ {
		col := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r>>8 == 0x3f && g>>8 == 0xb9 && bl>>8 == 0x50 {
				col++
			}
		}
		switch {
		case col > 0:
			run = max(run, col)
		case run > 0:
			heights = append(heights, run)
			run = 0
		}
	}
	if run > 0 {
		heights = append(heights, run)
	}
	return heights
}

func TestNurseOutcomesChartKeepsRelativeHeights(t *testing.T) {
	var buf bytes.Buffer
	err := NurseOutcomesChart(&buf, []analytics.NurseOutcome{
		{Nurse: "Small", Answered: 10, Missed: 10},
		{Nurse: "Big", Answered: 100, Missed: 100},
	})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)

	heights := barHeights(img)
	require.Len(t, heights, 2)
	ratio := float64(heights[1]) / float64(heights[0])
	assert.Greater(t, ratio, 5.0, "heights %v", heights)
	assert.Less(t, ratio, 20.0, "heights %v", heights)
}

func TestDailyOutcomesChartSkipsEmptyDays(t *testing.T) {
	var buf bytes.Buffer
	err := DailyOutcomesChart(&buf, []analytics.DayOutcome{{Date: "2025-07-01"}})
	assert.ErrorIs(t, err, errNoData)

	err = DailyOutcomesChart(&buf, []analytics.DayOutcome{
		{Date: "2025-07-01", Answered: 3, Missed: 1},
		{Date: "2025-07-02"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}
