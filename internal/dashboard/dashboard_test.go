package dashboard

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/tableloom/internal/analysis"
	"github.com/KaramelBytes/tableloom/internal/chart"
	"github.com/KaramelBytes/tableloom/internal/config"
	"github.com/KaramelBytes/tableloom/internal/dataset"
	"github.com/KaramelBytes/tableloom/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(t *testing.T, rows ...string) *dataset.Table {
	t.Helper()
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = strings.Split(r, ",")
	}
	tbl, err := dataset.FromRecords("jobs.csv", recs, dataset.LoadOptions{})
	require.NoError(t, err)
	return tbl
}

func jobsDashboard(t *testing.T) *Dashboard {
	t.Helper()
	tbl := table(t,
		"Title,Company,Location",
		"A,Acme,Yerevan",
		"A,Beta,Gyumri",
		"B,Acme,Yerevan",
		"B,Gamma,Vanadzor",
		"C,Acme,Yerevan",
	)
	p := config.DefaultProfiles()[0]
	d, err := New(tbl, p, analysis.DefaultOptions())
	require.NoError(t, err)
	return d
}

func TestNewValidatesProfileColumns(t *testing.T) {
	tbl := table(t, "Title,Age", "A,15")
	_, err := New(tbl, config.Profile{Name: "x", Filters: []string{"Location"}}, analysis.DefaultOptions())
	require.ErrorIs(t, err, dataset.ErrNoColumn)

	_, err = New(tbl, config.Profile{Name: "x", Range: &filter.Range{Column: "Title"}}, analysis.DefaultOptions())
	require.Error(t, err)
}

func TestDefaultSelection(t *testing.T) {
	d := jobsDashboard(t)
	sel := d.DefaultSelection()
	assert.Equal(t, []string{"A", "B", "C"}, sel.Categories["Title"])
	assert.Equal(t, []string{"Yerevan", "Gyumri", "Vanadzor"}, sel.Categories["Location"])
	assert.Nil(t, sel.Range)

	students := table(t, "Gender,Age,Hours", "F,15,2", "M,17,3", "F,30,", "M,,1")
	p := config.DefaultProfiles()[2]
	sd, err := New(students, p, analysis.DefaultOptions())
	require.NoError(t, err)
	sel = sd.DefaultSelection()
	assert.Equal(t, []string{"F", "M"}, sel.Categories["Gender"])
	require.NotNil(t, sel.Range)
	assert.Equal(t, filter.Range{Column: "Age", Low: 15, High: 25}, *sel.Range)

	// the profile range must not be shared with the selection
	sel.Range.Low = 99
	assert.Equal(t, 15.0, sd.DefaultSelection().Range.Low)
}

func TestRender(t *testing.T) {
	d := jobsDashboard(t)
	sel := filter.Selection{Categories: map[string][]string{"Title": {"A", "B"}}}
	res, err := d.Render(sel, RenderOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "jobs", res.Dataset)
	assert.Equal(t, 5, res.TotalRows)
	assert.Equal(t, 4, res.ViewRows)
	assert.Len(t, res.Rows, 4)
	assert.Empty(t, res.Warning)
	assert.Equal(t, 5, res.Summary.Rows)
	require.Len(t, res.Charts, 4)

	companies := res.Charts[0]
	require.NotNil(t, companies.Data)
	assert.Empty(t, companies.Notice)
	// charts over the full table ignore the selection
	assert.Equal(t, analysis.CategoryCount{Value: "Acme", Count: 3}, companies.Data.Bars[0])
	assert.Equal(t, "Top 10 Hiring Companies", companies.Title)

	heat := res.Charts[3]
	require.NotNil(t, heat.Data)
	require.NotNil(t, heat.Data.Matrix)
	assert.Equal(t, []string{"A", "B", "C"}, heat.Data.Matrix.Rows)

	second, err := d.Render(sel, RenderOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, res.ID, second.ID)
}

func TestRenderEmptySelection(t *testing.T) {
	d := jobsDashboard(t)
	res, err := d.Render(filter.Selection{Categories: map[string][]string{"Title": {}}}, RenderOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ViewRows)
	assert.Contains(t, res.Warning, "Title")
	assert.Contains(t, res.Warning, "0 rows")
}

func TestRenderNoticesInsteadOfErrors(t *testing.T) {
	tbl := table(t, "Gender,Age", "F,15", "M,17")
	p := config.Profile{
		Name:    "s",
		Filters: []string{"Gender"},
		Charts: []chart.Spec{
			{Kind: chart.KindCorrelation},
			{Kind: chart.KindDistribution, Column: "Gender"},
			{Kind: chart.KindBar, Column: "Missing"},
		},
	}
	d, err := New(tbl, p, analysis.DefaultOptions())
	require.NoError(t, err)

	res, err := d.Render(filter.Selection{}, RenderOptions{})
	require.NoError(t, err)
	assert.Contains(t, res.Charts[0].Notice, "at least 2 numeric columns")
	assert.Nil(t, res.Charts[0].Data)
	assert.NotNil(t, res.Charts[1].Data)
	assert.NotEmpty(t, res.Charts[2].Notice)

	res, err = d.Render(filter.Selection{}, RenderOptions{Distribution: "Age"})
	require.NoError(t, err)
	assert.Equal(t, "Age", res.Charts[1].Spec.Column)
	assert.Equal(t, "Distribution of Age", res.Charts[1].Title)

	_, err = d.Render(filter.Selection{}, RenderOptions{Distribution: "Nope"})
	require.ErrorIs(t, err, filter.ErrInvalidSelection)

	_, err = d.Render(filter.Selection{Range: &filter.Range{Column: "Gender"}}, RenderOptions{})
	require.True(t, errors.Is(err, filter.ErrInvalidSelection))
}

func TestChartAndExport(t *testing.T) {
	d := jobsDashboard(t)
	sel := filter.Selection{Categories: map[string][]string{"Location": {"Yerevan"}}}

	data, err := d.Chart(1, sel, RenderOptions{})
	require.NoError(t, err)
	assert.Len(t, data.Bars, 3)

	_, err = d.Chart(9, sel, RenderOptions{})
	require.ErrorIs(t, err, chart.ErrInvalidSpec)

	view, err := d.ApplyFilter(sel)
	require.NoError(t, err)
	local, err := d.ComputeChart(chart.Spec{Kind: chart.KindBar, Column: "Title"}, view.View)
	require.NoError(t, err)
	assert.Equal(t, []analysis.CategoryCount{{Value: "A", Count: 1}, {Value: "B", Count: 1}, {Value: "C", Count: 1}}, local.Bars)

	var buf bytes.Buffer
	require.NoError(t, d.ExportCSV(&buf, view.View))
	assert.Equal(t, "Title,Company,Location\nA,Acme,Yerevan\nB,Acme,Yerevan\nC,Acme,Yerevan\n", buf.String())

	vals, err := d.ListDistinctValues("Location")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gyumri", "Vanadzor", "Yerevan"}, vals)
}
