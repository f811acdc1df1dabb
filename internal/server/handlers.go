package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/KaramelBytes/tableloom/internal/analysis"
	"github.com/KaramelBytes/tableloom/internal/chart"
	"github.com/KaramelBytes/tableloom/internal/config"
	"github.com/KaramelBytes/tableloom/internal/dashboard"
	"github.com/KaramelBytes/tableloom/internal/dataset"
	"github.com/KaramelBytes/tableloom/internal/export"
	"github.com/KaramelBytes/tableloom/internal/filter"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NoticeHeader carries the reason a chart was not drawn.
const NoticeHeader = "X-Chart-Notice"

// DistributionParam picks the column of distribution charts.
const DistributionParam = "dist"

type datasetInfo struct {
	Name    string        `json:"name"`
	Title   string        `json:"title"`
	Path    string        `json:"path"`
	Rows    int           `json:"rows"`
	Columns []string      `json:"columns"`
	Filters []string      `json:"filters,omitempty"`
	Range   *filter.Range `json:"range,omitempty"`
	Charts  []chart.Spec  `json:"charts,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "datasets": len(s.order)})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	out := make([]datasetInfo, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, info(s.dashboards[name]))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func info(d *dashboard.Dashboard) datasetInfo {
	p := d.Profile()
	return datasetInfo{
		Name:    p.Name,
		Title:   p.DisplayTitle(),
		Path:    p.Path,
		Rows:    d.Table().Rows(),
		Columns: d.Table().Names(),
		Filters: p.Filters,
		Range:   p.Range,
		Charts:  p.Charts,
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, d.Summary())
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	column := urlParam(r, "column")
	vals, err := d.ListDistinctValues(column)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"column": column, "values": vals})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	sel, opt, err := selection(r, d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := d.Render(sel, opt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Warning != "" {
		s.log.Debug("empty view", "dataset", res.Dataset, "render_id", res.ID, "warning", res.Warning)
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, r, chart.ErrInvalidSpec)
		return
	}
	sel, opt, err := selection(r, d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := d.Chart(idx, sel, opt)
	var ide *analysis.InsufficientDataError
	if errors.As(err, &ide) {
		w.Header().Set(NoticeHeader, ide.Error())
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := chart.RenderSVG(&buf, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", chart.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	sel, _, err := selection(r, d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := d.ApplyFilter(sel)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := d.ExportCSV(&buf, res.View); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Profile().ExportFilename()}))
	w.Header().Set("X-Matched-Rows", strconv.Itoa(res.View.Rows()))
	_, _ = w.Write(buf.Bytes())
}

// selection reads the filter from the query, falling back to the profile's
// default selection when the query has no filter parameters.
func selection(r *http.Request, d *dashboard.Dashboard) (filter.Selection, dashboard.RenderOptions, error) {
	q := r.URL.Query()
	opt := dashboard.RenderOptions{Distribution: q.Get(DistributionParam)}
	sel, found, err := filter.ParseQuery(q)
	if err != nil {
		return filter.Selection{}, opt, err
	}
	if !found {
		sel = d.DefaultSelection()
	}
	return sel, opt, nil
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) (*dashboard.Dashboard, bool) {
	name := urlParam(r, "dataset")
	d, ok := s.dashboards[name]
	if !ok {
		s.writeError(w, r, fmt.Errorf("%w: %q", config.ErrUnknownDataset, name))
		return nil, false
	}
	return d, true
}

func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

// writeError maps errors to status codes: unknown datasets are 404, bad
// selections, columns or chart specs are 400, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err, "request_id", middleware.GetReqID(r.Context()))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, config.ErrUnknownDataset):
		return http.StatusNotFound
	case errors.Is(err, filter.ErrInvalidSelection),
		errors.Is(err, chart.ErrInvalidSpec),
		errors.Is(err, dataset.ErrNoColumn):
		return http.StatusBadRequest
	}
	var ide *analysis.InsufficientDataError
	if errors.As(err, &ide) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
