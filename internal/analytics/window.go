package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	// TimestampLayout is the format the call-history API expects.
	TimestampLayout = "2006-01-02T15:04:05Z"
	// DateLayout is used for date inputs and per-day grouping.
	DateLayout = "2006-01-02"
	// LocalLayout is how times are shown in tables.
	LocalLayout = "2006-01-02 15:04:05"
)

var (
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRange  = errors.New("start date is after end date")
	ErrInvalidClock  = errors.New("invalid clock time, expected HH:MM")
	ErrInvalidPreset = errors.New("unknown date range, expected Day, Week, Month or Custom")
)

// DateRange is an inclusive range of calendar days. Start and End are
// midnight in the dashboard's timezone.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns every calendar day of the range formatted with DateLayout.
func (r DateRange) Days() []string {
	var days []string
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// Window is the UTC query window sent to the provider.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) StartParam() string { return w.Start.UTC().Format(TimestampLayout) }
func (w Window) EndParam() string   { return w.End.UTC().Format(TimestampLayout) }

// ShiftWindow spans local midnight of the first day to 23:59:59 of the last
// day in loc, expressed in UTC.
func ShiftWindow(r DateRange, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	sy, sm, sd := r.Start.Date()
	ey, em, ed := r.End.Date()
	return Window{
		Start: time.Date(sy, sm, sd, 0, 0, 0, 0, loc).UTC(),
		End:   time.Date(ey, em, ed, 23, 59, 59, 0, loc).UTC(),
	}
}

// ParseDate parses YYYY-MM-DD as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// NewDateRange parses two YYYY-MM-DD dates and validates their order.
func NewDateRange(start, end string, loc *time.Location) (DateRange, error) {
	s, err := ParseDate(start, loc)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end, loc)
	if err != nil {
		return DateRange{}, err
	}
	if s.After(e) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{Start: s, End: e}, nil
}

// RangePreset is the sidebar's date range choice.
type RangePreset string

const (
	RangeDay    RangePreset = "Day"
	RangeWeek   RangePreset = "Week"
	RangeMonth  RangePreset = "Month"
	RangeCustom RangePreset = "Custom"
)

// Presets lists the choices in display order.
var Presets = []RangePreset{RangeDay, RangeWeek, RangeMonth, RangeCustom}

func ParsePreset(s string) (RangePreset, error) {
	for _, p := range Presets {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	if strings.TrimSpace(s) == "" {
		return RangeDay, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPreset, s)
}

// ResolveRange turns a preset into concrete dates relative to now in loc.
// Week covers the previous seven days plus today; Month starts on the 1st.
func ResolveRange(p RangePreset, now time.Time, loc *time.Location, customStart, customEnd string) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch p {
	case RangeDay, "":
		return DateRange{Start: today, End: today}, nil
	case RangeWeek:
		return DateRange{Start: today.AddDate(0, 0, -7), End: today}, nil
	case RangeMonth:
		return DateRange{Start: time.Date(y, m, 1, 0, 0, 0, 0, loc), End: today}, nil
	case RangeCustom:
		if customStart == "" {
			customStart = today.AddDate(0, 0, -7).Format(DateLayout)
		}
		if customEnd == "" {
			customEnd = today.Format(DateLayout)
		}
		return NewDateRange(customStart, customEnd, loc)
	default:
		return DateRange{}, fmt.Errorf("%w: %q", ErrInvalidPreset, p)
	}
}

// Clock is a time of day used for the clocked-in filter.
type Clock struct {
	Hour   int
	Minute int
}

func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c Clock) sinceMidnight() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute
}

func timeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// FilterWorkHours keeps weekday calls whose local start time falls within
// [clockIn, clockOut], both ends inclusive.
func FilterWorkHours(records []Record, clockIn, clockOut Clock) []Record {
	from, to := clockIn.sinceMidnight(), clockOut.sinceMidnight()
	out := make([]Record, 0, len(records))
	for _, r := range records {
		switch r.StartLocal.Weekday() {
		case time.Saturday, time.Sunday:
			continue
		}
		tod := timeOfDay(r.StartLocal)
		if tod < from || tod > to {
			continue
		}
		out = append(out, r)
	}
	return out
}
