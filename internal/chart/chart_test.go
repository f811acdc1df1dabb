package chart

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/tableloom/internal/analysis"
	"github.com/KaramelBytes/tableloom/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func students(t *testing.T) *dataset.Table {
	t.Helper()
	recs := [][]string{{"Gender", "Age", "Hours", "Score"}}
	for _, r := range []string{
		"Female,15,3.5,7",
		"Male,17,4.0,6",
		"Female,22,6.5,4",
		"Male,30,2.0,8",
		"Female,40,,5",
	} {
		recs = append(recs, strings.Split(r, ","))
	}
	tbl, err := dataset.FromRecords("students.csv", recs, dataset.LoadOptions{})
	require.NoError(t, err)
	return tbl
}

func TestSpecValidate(t *testing.T) {
	valid := []Spec{
		{Kind: KindBar, Column: "Gender"},
		{Kind: KindCrossTab, Column: "Gender", By: "Age", Source: SourceTable},
		{Kind: KindCorrelation},
		{Kind: KindDistribution, Column: "Age", Source: SourceView},
	}
	for _, s := range valid {
		assert.NoError(t, s.Validate(), "%+v", s)
	}
	invalid := []Spec{
		{Kind: "pie", Column: "Gender"},
		{Kind: KindBar},
		{Kind: KindCrossTab, Column: "Gender"},
		{Kind: KindHistogram, Column: "Age", Source: "cache"},
		{Kind: KindBar, Column: "Age", Top: -1},
	}
	for _, s := range invalid {
		err := s.Validate()
		assert.True(t, errors.Is(err, ErrInvalidSpec), "%+v", s)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Heatmap ")
	require.NoError(t, err)
	assert.Equal(t, KindCrossTab, k)
	k, err = ParseKind("bar")
	require.NoError(t, err)
	assert.Equal(t, KindBar, k)
	_, err = ParseKind("pie")
	require.ErrorIs(t, err, ErrInvalidSpec)
}

func TestComputeAndRender(t *testing.T) {
	tbl := students(t)
	cases := []struct {
		spec  Spec
		check func(t *testing.T, d *Data)
	}{
		{Spec{Kind: KindBar, Column: "Gender", Top: 1}, func(t *testing.T, d *Data) {
			assert.Equal(t, []analysis.CategoryCount{{Value: "Female", Count: 3}}, d.Bars)
			assert.Equal(t, "Top 1 Gender", d.Title)
		}},
		{Spec{Kind: KindCrossTab, Column: "Gender", By: "Age"}, func(t *testing.T, d *Data) {
			require.NotNil(t, d.Matrix)
			assert.Equal(t, []string{"15", "17", "22", "30", "40"}, d.Matrix.Cols)
		}},
		{Spec{Kind: KindHistogram, Column: "Age", Bins: 5}, func(t *testing.T, d *Data) {
			require.NotNil(t, d.Histogram)
			assert.Equal(t, 5, d.Histogram.Total())
		}},
		{Spec{Kind: KindCorrelation, Title: "Correlations"}, func(t *testing.T, d *Data) {
			require.NotNil(t, d.Matrix)
			assert.Len(t, d.Matrix.Rows, 3)
			assert.Equal(t, "Correlations", d.Title)
		}},
		{Spec{Kind: KindDistribution, Column: "Age"}, func(t *testing.T, d *Data) {
			assert.Len(t, d.Bars, 5)
			assert.Nil(t, d.Histogram)
		}},
	}
	for _, tc := range cases {
		t.Run(string(tc.spec.Kind), func(t *testing.T) {
			d, err := Compute(tbl, tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.spec.Kind, d.Kind)
			tc.check(t, d)

			var buf bytes.Buffer
			require.NoError(t, RenderSVG(&buf, d))
			assert.Contains(t, buf.String(), "<svg")
			assert.Contains(t, buf.String(), "</svg>")
		})
	}
}

func TestComputeInsufficientData(t *testing.T) {
	tbl, err := dataset.FromRecords("x.csv", [][]string{{"Name", "Age"}, {"a", "1"}}, dataset.LoadOptions{})
	require.NoError(t, err)
	_, err = Compute(tbl, Spec{Kind: KindCorrelation})
	var ide *analysis.InsufficientDataError
	require.ErrorAs(t, err, &ide)

	_, err = Compute(tbl.Head(0), Spec{Kind: KindBar, Column: "Name"})
	require.ErrorAs(t, err, &ide)

	_, err = Compute(tbl, Spec{Kind: KindBar, Column: "Nope"})
	require.ErrorIs(t, err, dataset.ErrNoColumn)
}

func TestRenderNothing(t *testing.T) {
	require.Error(t, RenderSVG(&bytes.Buffer{}, &Data{Kind: KindBar}))
}

func TestPalettes(t *testing.T) {
	assert.Equal(t, blueLow, sequential(0, 10))
	assert.Equal(t, blueHigh, sequential(10, 10))
	assert.Equal(t, coolMid, diverging(0))
	assert.Equal(t, coolNeg, diverging(-1))
	assert.Equal(t, coolPos, diverging(2))
	assert.Equal(t, drawing.ColorWhite, textOn(blueHigh))
	assert.Equal(t, drawing.ColorBlack, textOn(blueLow))
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "short", shorten("short"))
	long := shorten("Senior Data Platform Engineer")
	assert.Equal(t, maxLabelLen, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "…"))
}
