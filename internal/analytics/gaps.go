package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultGapThreshold is the idle time, in minutes, that gets flagged.
const DefaultGapThreshold = 30

// Gap is idle time between the end of one call and the start of the next.
type Gap struct {
	Nurse        string  `json:"nurse,omitempty"`
	PreviousEnd  string  `json:"previous_end"`
	CurrentStart string  `json:"current_start"`
	Minutes      float64 `json:"minutes"`
}

// gapMinutes returns, for chronologically sorted records, the gap before
// each record. The first record has no predecessor and gets NaN.
func gapMinutes(records []Record) []float64 {
	gaps := make([]float64, len(records))
	for i := range records {
		if i == 0 {
			gaps[i] = math.NaN()
			continue
		}
		gaps[i] = records[i].Start.Sub(records[i-1].End).Minutes()
	}
	return gaps
}

func sorted(records []Record) []Record {
	cp := make([]Record, len(records))
	copy(cp, records)
	SortByStart(cp)
	return cp
}

// Gaps lists idle periods longer than threshold minutes.
func Gaps(records []Record, threshold float64) []Gap {
	rs := sorted(records)
	var out []Gap
	for i, g := range gapMinutes(rs) {
		if math.IsNaN(g) || g <= threshold {
			continue
		}
		out = append(out, Gap{
			Nurse:        rs[i].Nurse,
			PreviousEnd:  rs[i-1].EndLocal.Format(LocalLayout),
			CurrentStart: rs[i].StartLocal.Format(LocalLayout),
			Minutes:      g,
		})
	}
	return out
}

// Bin is one histogram bucket covering [From, To).
type Bin struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// Histogram spreads values over n equal-width bins between their min and
// max. The last bin is closed on the right.
func Histogram(values []float64, n int) []Bin {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	x := append([]float64(nil), values...)
	sort.Float64s(x)
	lo, hi := floats.Min(x), floats.Max(x)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	dividers := floats.Span(make([]float64, n+1), lo, hi)
	// stat.Histogram bins are half-open; nudge the top edge so max is counted.
	dividers[n] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, x, nil)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{From: dividers[i], To: dividers[i+1], Count: int(counts[i])}
	}
	bins[n-1].To = hi
	return bins
}

// GapReport is the idle-time analysis for one nurse.
type GapReport struct {
	Threshold    float64 `json:"threshold_minutes"`
	TotalCallMin float64 `json:"total_call_minutes"`
	Flagged      []Gap   `json:"flagged"`
	FlagCount    int     `json:"flag_count"`
	Histogram    []Bin   `json:"histogram"`
}

// HistogramBins is the number of buckets in the gap distribution.
const HistogramBins = 20

// AnalyzeGaps computes total call time, flagged gaps and the gap
// distribution. The first call's missing gap counts as zero in the
// distribution.
func AnalyzeGaps(records []Record, threshold float64) GapReport {
	rs := sorted(records)
	rep := GapReport{Threshold: threshold}
	gaps := gapMinutes(rs)
	values := make([]float64, 0, len(gaps))
	lengths := make([]float64, 0, len(rs))
	for i, r := range rs {
		lengths = append(lengths, r.End.Sub(r.Start).Minutes())
		g := gaps[i]
		if math.IsNaN(g) {
			g = 0
		}
		values = append(values, g)
	}
	rep.TotalCallMin = floats.Sum(lengths)
	rep.Flagged = Gaps(rs, threshold)
	rep.FlagCount = len(rep.Flagged)
	rep.Histogram = Histogram(values, HistogramBins)
	return rep
}
