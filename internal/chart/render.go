package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/KaramelBytes/tableloom/internal/analysis"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ContentType is the media type written by RenderSVG.
const ContentType = "image/svg+xml"

const (
	barHeight   = 420
	minBarWidth = 640
	maxLabelLen = 18
)

var barColor = drawing.Color{R: 49, G: 130, B: 189, A: 255}

// RenderSVG draws d as an SVG document.
func RenderSVG(w io.Writer, d *Data) error {
	switch {
	case d.Matrix != nil:
		return renderHeatmap(w, d.Title, d.Matrix)
	case d.Histogram != nil:
		return renderBars(w, d.Title, histogramBars(d.Histogram))
	case len(d.Bars) > 0:
		bars := make([]gochart.Value, len(d.Bars))
		for i, b := range d.Bars {
			bars[i] = gochart.Value{Label: shorten(b.Value), Value: float64(b.Count)}
		}
		return renderBars(w, d.Title, bars)
	}
	return errors.New("render chart: nothing to draw")
}

func renderBars(w io.Writer, title string, bars []gochart.Value) error {
	maxV := 0.0
	for i := range bars {
		bars[i].Style = gochart.Style{FillColor: barColor, StrokeColor: barColor}
		maxV = math.Max(maxV, bars[i].Value)
	}
	if maxV <= 0 {
		maxV = 1
	}
	width := len(bars) * 70
	if width < minBarWidth {
		width = minBarWidth
	}
	bc := gochart.BarChart{
		Title:      title,
		Width:      width,
		Height:     barHeight,
		BarWidth:   40,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: 0, Max: maxV * 1.05},
			ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.0f", v) },
		},
		Bars: bars,
	}
	if err := bc.Render(gochart.SVG, w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

func histogramBars(h *analysis.Histogram) []gochart.Value {
	bars := make([]gochart.Value, len(h.Counts))
	for i, c := range h.Counts {
		bars[i] = gochart.Value{Label: fmt.Sprintf("%.3g", h.Edges[i]), Value: float64(c)}
	}
	return bars
}

func shorten(s string) string {
	if utf8.RuneCountInString(s) <= maxLabelLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLabelLen-1]) + "…"
}
