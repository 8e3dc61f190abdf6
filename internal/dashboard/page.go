package dashboard

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/calldash/server/internal/analytics"
	errx "github.com/calldash/server/internal/core/error"
	"github.com/calldash/server/internal/service"
	logx "github.com/calldash/server/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// pageData feeds the dashboard template. Exactly one of Overall and Nurse is
// set unless Error is.
type pageData struct {
	Title    string
	Username string
	Filters  filters
	Presets  []analytics.RangePreset
	Nurses   []service.NurseOption
	Overall  *service.OverallReport
	Nurse    *service.NurseReport
	Charts   map[string]template.URL
	Error    string
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:   h.opts.Title,
		Presets: analytics.Presets,
		Charts:  map[string]template.URL{},
	}
	if s := sessionFrom(r.Context()); s != nil {
		data.Username = s.Username
	}

	status := http.StatusOK
	f, err := h.parseFilters(r)
	data.Filters = f
	if err != nil {
		status, data.Error = errx.StatusOf(err)
		h.renderPage(w, status, data)
		return
	}

	if data.Nurses, err = h.reports.Nurses(r.Context()); err != nil {
		status, data.Error = h.pageError(r, err)
		h.renderPage(w, status, data)
		return
	}

	if f.Nurse == "" {
		data.Overall, err = h.reports.Overall(r.Context(), f.Range)
	} else {
		data.Nurse, err = h.reports.Nurse(r.Context(), f.nurseQuery(f.Nurse))
	}
	if err != nil {
		status, data.Error = h.pageError(r, err)
		h.renderPage(w, status, data)
		return
	}

	for name, render := range chartsFor(data.Overall, data.Nurse) {
		uri, err := dataURI(render)
		if err != nil {
			if !errors.Is(err, errNoData) {
				logx.Warn().Err(err).Str("chart", name).Msg("failed to render chart")
			}
			continue
		}
		data.Charts[name] = uri
	}
	h.renderPage(w, status, data)
}

func (h *Handler) pageError(r *http.Request, err error) (int, string) {
	status, msg := errx.StatusOf(err)
	if status >= http.StatusInternalServerError {
		reqLog(r).Error().Err(err).Msg("failed to build dashboard")
	}
	return status, msg
}

// chartsFor returns the renderers that apply to the selected view.
func chartsFor(overall *service.OverallReport, nurse *service.NurseReport) map[string]func(io.Writer) error {
	out := map[string]func(io.Writer) error{}
	switch {
	case overall != nil && !overall.Empty:
		out["daily-volume"] = func(w io.Writer) error { return DailyVolumeChart(w, overall.DailyVolume) }
		out["nurse-outcomes"] = func(w io.Writer) error { return NurseOutcomesChart(w, overall.NurseOutcomes) }
	case nurse != nil && !nurse.Empty:
		out["daily-outcomes"] = func(w io.Writer) error { return DailyOutcomesChart(w, nurse.DailyOutcomes) }
		out["avg-duration"] = func(w io.Writer) error { return DailyAvgDurationChart(w, nurse.DailyAvgDuration) }
		out["gap-distribution"] = func(w io.Writer) error { return GapDistributionChart(w, nurse.GapAnalysis.Histogram) }
	}
	return out
}

// handleChart serves a single chart as PNG for the current filters.
func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilters(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var (
		overall *service.OverallReport
		nurse   *service.NurseReport
	)
	if f.Nurse == "" {
		overall, err = h.reports.Overall(r.Context(), f.Range)
	} else {
		nurse, err = h.reports.Nurse(r.Context(), f.nurseQuery(f.Nurse))
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	render, ok := chartsFor(overall, nurse)[chi.URLParam(r, "name")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no such chart for this view"})
		return
	}
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		if errors.Is(err, errNoData) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) renderPage(w http.ResponseWriter, status int, data pageData) {
	render(w, status, pageTmpl, data)
}

func (h *Handler) renderLogin(w http.ResponseWriter, status int, msg string) {
	render(w, status, loginTmpl, map[string]string{"Title": h.opts.Title, "Error": msg})
}

func render(w http.ResponseWriter, status int, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		logx.Error().Err(err).Str("template", t.Name()).Msg("failed to render template")
		http.Error(w, errx.SystemErrorMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
