package analytics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DayOutcome counts answered and missed inbound calls on a local date.
type DayOutcome struct {
	Date     string `json:"date"`
	Answered int    `json:"answered"`
	Missed   int    `json:"missed"`
}

// DayValue is a per-day duration metric in minutes.
type DayValue struct {
	Date    string  `json:"date"`
	Minutes float64 `json:"minutes"`
}

// Zone classifies a day's call volume.
type Zone string

const (
	ZoneLow      Zone = "Low"
	ZoneModerate Zone = "Moderate"
	ZoneHigh     Zone = "High"
)

// ZoneFor maps a daily call count to its zone: up to 30 is Low, up to 70 is
// Moderate, anything above is High.
func ZoneFor(calls int) Zone {
	switch {
	case calls <= 30:
		return ZoneLow
	case calls <= 70:
		return ZoneModerate
	default:
		return ZoneHigh
	}
}

// DayVolume is the total calls on a local date and their zone.
type DayVolume struct {
	Date  string `json:"date"`
	Total int    `json:"total"`
	Zone  Zone   `json:"zone"`
}

// NurseOutcome counts answered and missed inbound calls per nurse.
type NurseOutcome struct {
	Nurse    string `json:"nurse"`
	Answered int    `json:"answered"`
	Missed   int    `json:"missed"`
}

func dateOf(r Record) string {
	return r.StartLocal.Format(DateLayout)
}

// DailyOutcomes counts, per local date, answered calls and missed inbound
// calls. Missed outbound calls are left out, as are dates with neither.
func DailyOutcomes(records []Record) []DayOutcome {
	byDay := map[string]*DayOutcome{}
	for _, r := range records {
		if !r.Answered() && !r.MissedInbound() {
			continue
		}
		d := dateOf(r)
		o, ok := byDay[d]
		if !ok {
			o = &DayOutcome{Date: d}
			byDay[d] = o
		}
		if r.Answered() {
			o.Answered++
		} else {
			o.Missed++
		}
	}
	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	out := make([]DayOutcome, 0, len(keys))
	for _, k := range sortStrings(keys) {
		out = append(out, *byDay[k])
	}
	return out
}

func answeredByDay(records []Record) (map[string][]float64, []string) {
	byDay := map[string][]float64{}
	for _, r := range records {
		if !r.Answered() {
			continue
		}
		d := dateOf(r)
		byDay[d] = append(byDay[d], r.DurationMin)
	}
	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	return byDay, sortStrings(keys)
}

// DailyAvgDuration is the mean answered call duration per local date.
func DailyAvgDuration(records []Record) []DayValue {
	byDay, keys := answeredByDay(records)
	out := make([]DayValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, DayValue{Date: k, Minutes: stat.Mean(byDay[k], nil)})
	}
	return out
}

// DailyTalkTime is the summed answered call duration per local date.
func DailyTalkTime(records []Record) []DayValue {
	byDay, keys := answeredByDay(records)
	out := make([]DayValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, DayValue{Date: k, Minutes: floats.Sum(byDay[k])})
	}
	return out
}

// DailyVolume counts all calls per local date and classifies each day.
func DailyVolume(records []Record) []DayVolume {
	byDay := map[string]int{}
	for _, r := range records {
		byDay[dateOf(r)]++
	}
	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	out := make([]DayVolume, 0, len(keys))
	for _, k := range sortStrings(keys) {
		out = append(out, DayVolume{Date: k, Total: byDay[k], Zone: ZoneFor(byDay[k])})
	}
	return out
}

// NurseOutcomes counts answered and missed inbound calls per nurse, sorted
// by nurse name.
func NurseOutcomes(records []Record) []NurseOutcome {
	byNurse := map[string]*NurseOutcome{}
	for _, r := range records {
		if !r.Answered() && !r.MissedInbound() {
			continue
		}
		o, ok := byNurse[r.Nurse]
		if !ok {
			o = &NurseOutcome{Nurse: r.Nurse}
			byNurse[r.Nurse] = o
		}
		if r.Answered() {
			o.Answered++
		} else {
			o.Missed++
		}
	}
	keys := make([]string, 0, len(byNurse))
	for k := range byNurse {
		keys = append(keys, k)
	}
	out := make([]NurseOutcome, 0, len(keys))
	for _, k := range sortStrings(keys) {
		out = append(out, *byNurse[k])
	}
	return out
}

func sortStrings(keys []string) []string {
	sort.Strings(keys)
	return keys
}

// FillVolume adds a zero-call Low entry for every day of days that has no
// calls, keeping date order.
func FillVolume(volume []DayVolume, days []string) []DayVolume {
	byDay := make(map[string]DayVolume, len(volume))
	for _, v := range volume {
		byDay[v.Date] = v
	}
	for _, d := range days {
		if _, ok := byDay[d]; !ok {
			byDay[d] = DayVolume{Date: d, Zone: ZoneFor(0)}
		}
	}
	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	out := make([]DayVolume, 0, len(keys))
	for _, k := range sortStrings(keys) {
		out = append(out, byDay[k])
	}
	return out
}
