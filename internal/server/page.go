package server

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/KaramelBytes/tableloom/internal/chart"
	"github.com/KaramelBytes/tableloom/internal/dashboard"
	"github.com/KaramelBytes/tableloom/internal/filter"
)

type option struct {
	Value    string
	Selected bool
}

type filterField struct {
	Column  string
	Param   string
	Options []option
}

type rangeField struct {
	Param string
	Label string
	Value string
}

type chartField struct {
	Title  string
	Notice string
	URL    template.URL
}

type dashboardPage struct {
	Result       *dashboard.Result
	Filters      []filterField
	Range        *rangeField
	Columns      []option
	HasPicker    bool
	Charts       []chartField
	ExportURL    template.URL
	ExportName   string
	ShownRows    int
	MissingTotal int
}

type indexPage struct {
	Datasets []datasetInfo
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{}
	for _, name := range s.order {
		page.Datasets = append(page.Datasets, info(s.dashboards[name]))
	}
	s.renderTemplate(w, r, "index.html", page)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
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

	q := sel.Encode()
	if opt.Distribution != "" {
		q.Set(DistributionParam, opt.Distribution)
	}
	base := "/api/datasets/" + url.PathEscape(res.Dataset)
	page := dashboardPage{
		Result:     res,
		ExportURL:  template.URL(base + "/export.csv?" + q.Encode()),
		ExportName: d.Profile().ExportFilename(),
		ShownRows:  len(res.Rows),
	}
	for _, c := range res.Summary.Cols {
		page.MissingTotal += c.Missing
	}

	for _, col := range d.Profile().Filters {
		vals, err := d.ListDistinctValues(col)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		chosen := map[string]bool{}
		for _, v := range sel.Categories[col] {
			chosen[v] = true
		}
		_, constrained := sel.Categories[col]
		f := filterField{Column: col, Param: filter.CategoryPrefix + col}
		for _, v := range vals {
			f.Options = append(f.Options, option{Value: v, Selected: !constrained || chosen[v]})
		}
		if c, _ := d.Table().Column(col); c != nil && c.NonNull() < c.Len() {
			f.Options = append(f.Options, option{Value: filter.Missing, Selected: !constrained || chosen[filter.Missing]})
		}
		page.Filters = append(page.Filters, f)
	}

	if p := d.Profile().Range; p != nil {
		rf := &rangeField{Param: filter.RangePrefix + p.Column, Label: p.Column}
		if sel.Range != nil && sel.Range.Column == p.Column {
			rf.Value = sel.Encode().Get(rf.Param)
		}
		page.Range = rf
	}

	for _, cr := range res.Charts {
		if cr.Spec.Kind == chart.KindDistribution {
			page.HasPicker = true
		}
		cf := chartField{Title: cr.Title, Notice: cr.Notice}
		if cr.Notice == "" {
			cf.URL = template.URL(base + "/charts/" + strconv.Itoa(cr.Index) + ".svg?" + q.Encode())
		}
		page.Charts = append(page.Charts, cf)
	}
	if page.HasPicker {
		current := opt.Distribution
		for _, cr := range res.Charts {
			if current == "" && cr.Spec.Kind == chart.KindDistribution {
				current = cr.Spec.Column
			}
		}
		for _, name := range d.Table().Names() {
			page.Columns = append(page.Columns, option{Value: name, Selected: name == current})
		}
	}

	s.renderTemplate(w, r, "dashboard.html", page)
}

// renderTemplate executes name into a buffer before writing the response.
func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
