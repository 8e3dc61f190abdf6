package dashboard

import (
	"html/template"
	"net/http"
	"net/url"

	"github.com/calldash/server/internal/analytics"
	errx "github.com/calldash/server/internal/core/error"
	"github.com/calldash/server/internal/service"
)

// filters are the sidebar selections, read from the query string.
type filters struct {
	Preset   analytics.RangePreset
	Start    string
	End      string
	Nurse    string // user key; empty means all nurses
	ClockIn  analytics.Clock
	ClockOut analytics.Clock
	Range    analytics.DateRange
}

func (h *Handler) parseFilters(r *http.Request) (filters, error) {
	q := r.URL.Query()
	f := filters{
		Start:    q.Get("start"),
		End:      q.Get("end"),
		Nurse:    q.Get("nurse"),
		ClockIn:  h.opts.ClockIn,
		ClockOut: h.opts.ClockOut,
	}

	preset, err := analytics.ParsePreset(q.Get("range"))
	if err != nil {
		return f, errx.BadRequest(err)
	}
	f.Preset = preset

	if v := q.Get("clock_in"); v != "" {
		if f.ClockIn, err = analytics.ParseClock(v); err != nil {
			return f, errx.BadRequest(err)
		}
	}
	if v := q.Get("clock_out"); v != "" {
		if f.ClockOut, err = analytics.ParseClock(v); err != nil {
			return f, errx.BadRequest(err)
		}
	}

	f.Range, err = analytics.ResolveRange(preset, h.reports.Now(), h.reports.Location(), f.Start, f.End)
	if err != nil {
		return f, errx.BadRequest(err)
	}
	if preset == analytics.RangeCustom {
		f.Start = f.Range.Start.Format(analytics.DateLayout)
		f.End = f.Range.End.Format(analytics.DateLayout)
	}
	return f, nil
}

func (f filters) nurseQuery(userKey string) service.NurseQuery {
	return service.NurseQuery{
		UserKey:  userKey,
		Range:    f.Range,
		ClockIn:  f.ClockIn,
		ClockOut: f.ClockOut,
	}
}

// Query returns the query string that reproduces these filters.
func (f filters) Query() template.URL {
	q := url.Values{}
	q.Set("range", string(f.Preset))
	if f.Preset == analytics.RangeCustom {
		q.Set("start", f.Start)
		q.Set("end", f.End)
	}
	if f.Nurse != "" {
		q.Set("nurse", f.Nurse)
	}
	q.Set("clock_in", f.ClockIn.String())
	q.Set("clock_out", f.ClockOut.String())
	return template.URL(q.Encode())
}
