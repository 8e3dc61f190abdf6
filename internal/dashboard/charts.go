package dashboard

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/calldash/server/internal/analytics"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	colorAnswered = drawing.ColorFromHex("3fb950")
	colorMissed   = drawing.ColorFromHex("f85149")

	zoneColors = map[analytics.Zone]drawing.Color{
		analytics.ZoneLow:      drawing.ColorFromHex("f85149"),
		analytics.ZoneModerate: drawing.ColorFromHex("db6d28"),
		analytics.ZoneHigh:     drawing.ColorFromHex("3fb950"),
	}
	colorBar = drawing.ColorFromHex("58a6ff")
)

// errNoData is returned when a chart has nothing to plot.
var errNoData = errors.New("no data to chart")

const (
	chartHeight = 360
	barWidth    = 36
	barSpacing  = 12
)

func chartWidth(bars int) int {
	return max(640, bars*(barWidth+barSpacing)+160)
}

// shortDate turns 2006-01-02 into "Jan 02" for axis labels.
func shortDate(d string) string {
	t, err := time.Parse(analytics.DateLayout, d)
	if err != nil {
		return d
	}
	return t.Format("Jan 02")
}

// yRange pins the y axis at zero; go-chart refuses a zero-height range.
func yRange(values []float64) *chart.ContinuousRange {
	top := 1.0
	for _, v := range values {
		top = max(top, v)
	}
	return &chart.ContinuousRange{Min: 0, Max: top * 1.1}
}

func renderBars(w io.Writer, title, yName string, bars []chart.Value) error {
	if len(bars) == 0 {
		return errNoData
	}
	values := make([]float64, len(bars))
	for i, b := range bars {
		values[i] = b.Value
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      chartWidth(len(bars)),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{Name: yName, Range: yRange(values)},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

// DailyVolumeChart is the call count per day, coloured by zone.
func DailyVolumeChart(w io.Writer, days []analytics.DayVolume) error {
	bars := make([]chart.Value, 0, len(days))
	for _, d := range days {
		bars = append(bars, chart.Value{
			Label: shortDate(d.Date),
			Value: float64(d.Total),
			Style: chart.Style{FillColor: zoneColors[d.Zone], StrokeColor: zoneColors[d.Zone]},
		})
	}
	return renderBars(w, "Daily Call Volume Classification", "Number of Calls", bars)
}

// GapDistributionChart is the histogram of idle minutes between calls.
func GapDistributionChart(w io.Writer, bins []analytics.Bin) error {
	bars := make([]chart.Value, 0, len(bins))
	for _, b := range bins {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%.0f", b.From),
			Value: float64(b.Count),
			Style: chart.Style{FillColor: colorBar, StrokeColor: colorBar},
		})
	}
	return renderBars(w, "Gap Between Calls (Minutes)", "Calls", bars)
}

type outcome struct {
	label            string
	answered, missed int
}

// renderOutcomes draws answered and missed side by side for each row on a
// shared count axis. Only the answered bar carries the row label.
func renderOutcomes(w io.Writer, title string, rows []outcome) error {
	bars := make([]chart.Value, 0, 2*len(rows))
	values := make([]float64, 0, 2*len(rows))
	for _, r := range rows {
		if r.answered+r.missed == 0 {
			continue
		}
		bars = append(bars,
			chart.Value{
				Label: fmt.Sprintf("%s (%d/%d)", r.label, r.answered, r.missed),
				Value: float64(r.answered),
				Style: chart.Style{FillColor: colorAnswered, StrokeColor: colorAnswered},
			},
			chart.Value{
				Value: float64(r.missed),
				Style: chart.Style{FillColor: colorMissed, StrokeColor: colorMissed},
			},
		)
		values = append(values, float64(r.answered), float64(r.missed))
	}
	if len(bars) == 0 {
		return errNoData
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      chartWidth(len(bars)),
		Height:     chartHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      chart.YAxis{Name: "Calls (answered/missed)", Range: yRange(values)},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

// DailyOutcomesChart is answered vs missed inbound calls per day.
func DailyOutcomesChart(w io.Writer, days []analytics.DayOutcome) error {
	rows := make([]outcome, 0, len(days))
	for _, d := range days {
		rows = append(rows, outcome{label: shortDate(d.Date), answered: d.Answered, missed: d.Missed})
	}
	return renderOutcomes(w, "Daily Call Outcomes (Inbound Missed Only)", rows)
}

// NurseOutcomesChart is answered vs missed inbound calls per nurse.
func NurseOutcomesChart(w io.Writer, nurses []analytics.NurseOutcome) error {
	rows := make([]outcome, 0, len(nurses))
	for _, n := range nurses {
		rows = append(rows, outcome{label: n.Nurse, answered: n.Answered, missed: n.Missed})
	}
	return renderOutcomes(w, "Call Outcomes per Nurse (Inbound Missed Only)", rows)
}

// dataURI renders a chart into an inline PNG for the page.
func dataURI(render func(io.Writer) error) (template.URL, error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// DailyAvgDurationChart is the mean answered call length per day.
func DailyAvgDurationChart(w io.Writer, days []analytics.DayValue) error {
	bars := make([]chart.Value, 0, len(days))
	for _, d := range days {
		bars = append(bars, chart.Value{
			Label: shortDate(d.Date),
			Value: analytics.Round2(d.Minutes),
			Style: chart.Style{FillColor: colorBar, StrokeColor: colorBar},
		})
	}
	return renderBars(w, "Average Call Duration per Day", "Minutes", bars)
}
