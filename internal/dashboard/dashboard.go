package dashboard

import (
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/tableloom/internal/analysis"
	"github.com/KaramelBytes/tableloom/internal/chart"
	"github.com/KaramelBytes/tableloom/internal/config"
	"github.com/KaramelBytes/tableloom/internal/dataset"
	"github.com/KaramelBytes/tableloom/internal/export"
	"github.com/KaramelBytes/tableloom/internal/filter"
	"github.com/google/uuid"
)

// Dashboard binds a loaded table to its profile. It holds no mutable state,
// so one Dashboard serves any number of concurrent requests.
type Dashboard struct {
	table   *dataset.Table
	profile config.Profile
	summary *analysis.Report
}

// New checks that the profile's columns exist in t and precomputes the
// summary of the full table.
func New(t *dataset.Table, p config.Profile, opt analysis.Options) (*Dashboard, error) {
	for _, col := range p.Filters {
		if _, err := t.Column(col); err != nil {
			return nil, fmt.Errorf("dataset %q filter: %w", p.Name, err)
		}
	}
	if p.Range != nil {
		c, err := t.Column(p.Range.Column)
		if err != nil {
			return nil, fmt.Errorf("dataset %q range: %w", p.Name, err)
		}
		if c.Kind != dataset.KindNumeric {
			return nil, fmt.Errorf("dataset %q range: column %q is %s, not numeric", p.Name, c.Name, c.Kind)
		}
	}
	return &Dashboard{table: t, profile: p, summary: analysis.Summarize(t, opt)}, nil
}

// Load reads the profile's dataset and builds its dashboard.
func Load(path string, p config.Profile, opt analysis.Options) (*Dashboard, error) {
	lo, err := p.LoadOptions()
	if err != nil {
		return nil, err
	}
	t, err := dataset.Load(path, lo)
	if err != nil {
		return nil, err
	}
	return New(t, p, opt)
}

// Table returns the full, unfiltered table.
func (d *Dashboard) Table() *dataset.Table { return d.table }

func (d *Dashboard) Profile() config.Profile { return d.profile }

// Summary is the report over the full table, computed once at construction.
func (d *Dashboard) Summary() *analysis.Report { return d.summary }

// ListDistinctValues returns the sorted distinct values of a column.
func (d *Dashboard) ListDistinctValues(column string) ([]string, error) {
	return d.table.DistinctValues(column)
}

// ApplyFilter returns the filtered view of the table.
func (d *Dashboard) ApplyFilter(sel filter.Selection) (filter.Result, error) {
	return filter.Apply(d.table, sel)
}

// ComputeChart evaluates spec over the view, or over the whole table when the
// spec asks for it.
func (d *Dashboard) ComputeChart(spec chart.Spec, view *dataset.Table) (*chart.Data, error) {
	src := view
	if spec.UsesTable() || src == nil {
		src = d.table
	}
	return chart.Compute(src, spec)
}

// ExportCSV writes the view as CSV.
func (d *Dashboard) ExportCSV(w io.Writer, view *dataset.Table) error {
	return export.WriteCSV(w, view)
}

// DefaultSelection preselects the first DefaultSelected values of each
// filter column (all values when zero) and the profile range.
func (d *Dashboard) DefaultSelection() filter.Selection {
	var sel filter.Selection
	if d.profile.DefaultSelected > 0 {
		sel, _ = filter.DefaultSelection(d.table, d.profile.Filters, d.profile.DefaultSelected)
	} else {
		sel, _ = filter.All(d.table, d.profile.Filters)
	}
	if d.profile.Range != nil {
		r := *d.profile.Range
		sel.Range = &r
	}
	return sel
}

// ChartResult is one chart of a render: computed data, or a notice when the
// data cannot support the chart.
type ChartResult struct {
	Index  int         `json:"index"`
	Spec   chart.Spec  `json:"spec"`
	Title  string      `json:"title"`
	Data   *chart.Data `json:"data,omitempty"`
	Notice string      `json:"notice,omitempty"`
}

// Result is everything a dashboard page shows for one selection.
type Result struct {
	ID        string           `json:"id"`
	Dataset   string           `json:"dataset"`
	Title     string           `json:"title"`
	Summary   *analysis.Report `json:"summary"`
	Selection filter.Selection `json:"selection"`
	TotalRows int              `json:"total_rows"`
	ViewRows  int              `json:"view_rows"`
	Header    []string         `json:"header"`
	Rows      [][]string       `json:"rows"`
	Warning   string           `json:"warning,omitempty"`
	Charts    []ChartResult    `json:"charts"`
	View      *dataset.Table   `json:"-"`
	Options   RenderOptions    `json:"options"`
}

// RenderOptions tweak a single render.
type RenderOptions struct {
	// Distribution replaces the column of distribution charts, the way the
	// column picker does.
	Distribution string `json:"distribution,omitempty"`
}

// Render runs the whole pipeline for sel: filter, charts and the rows to show.
// Charts that lack data carry a notice instead of failing the render.
func (d *Dashboard) Render(sel filter.Selection, opt RenderOptions) (*Result, error) {
	if opt.Distribution != "" {
		if _, err := d.table.Column(opt.Distribution); err != nil {
			return nil, fmt.Errorf("%w: %w", filter.ErrInvalidSelection, err)
		}
	}
	fr, err := d.ApplyFilter(sel)
	if err != nil {
		return nil, err
	}
	view := fr.View
	res := &Result{
		ID:        uuid.NewString(),
		Dataset:   d.profile.Name,
		Title:     d.profile.DisplayTitle(),
		Summary:   d.summary,
		Selection: sel,
		TotalRows: d.table.Rows(),
		ViewRows:  view.Rows(),
		Header:    view.Names(),
		Rows:      view.Records(d.profile.ViewRows),
		View:      view,
		Options:   opt,
	}
	if fr.Warning != nil {
		res.Warning = fr.Warning.Error()
	}
	for i := range d.profile.Charts {
		spec := d.spec(i, opt)
		cr := ChartResult{Index: i, Spec: spec, Title: spec.DisplayTitle()}
		data, err := d.ComputeChart(spec, view)
		var ide *analysis.InsufficientDataError
		switch {
		case errors.As(err, &ide):
			cr.Notice = ide.Error()
		case err != nil:
			cr.Notice = err.Error()
		default:
			cr.Data = data
		}
		res.Charts = append(res.Charts, cr)
	}
	return res, nil
}

// Chart renders chart i of the profile for sel.
func (d *Dashboard) Chart(i int, sel filter.Selection, opt RenderOptions) (*chart.Data, error) {
	if i < 0 || i >= len(d.profile.Charts) {
		return nil, fmt.Errorf("%w: chart %d of %d", chart.ErrInvalidSpec, i, len(d.profile.Charts))
	}
	spec := d.spec(i, opt)
	var view *dataset.Table
	if !spec.UsesTable() {
		fr, err := d.ApplyFilter(sel)
		if err != nil {
			return nil, err
		}
		view = fr.View
	}
	return d.ComputeChart(spec, view)
}

func (d *Dashboard) spec(i int, opt RenderOptions) chart.Spec {
	spec := d.profile.Charts[i]
	if spec.Kind == chart.KindDistribution && opt.Distribution != "" {
		spec.Column = opt.Distribution
		spec.Title = ""
	}
	return spec
}
