package chart

import (
	"fmt"
	"io"
	"math"

	"github.com/KaramelBytes/tableloom/internal/analysis"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	cellSize   = 56
	heatMargin = 16
	titleSize  = 14.0
	labelSize  = 10.0
	valueSize  = 9.0
)

var (
	// Sequential blues for counts.
	blueLow  = drawing.Color{R: 247, G: 251, B: 255, A: 255}
	blueHigh = drawing.Color{R: 8, G: 48, B: 107, A: 255}
	// Diverging palette for correlations.
	coolNeg = drawing.Color{R: 59, G: 76, B: 192, A: 255}
	coolMid = drawing.Color{R: 221, G: 221, B: 221, A: 255}
	coolPos = drawing.Color{R: 180, G: 4, B: 38, A: 255}

	nanColor  = drawing.Color{R: 240, G: 240, B: 240, A: 255}
	gridColor = drawing.Color{R: 255, G: 255, B: 255, A: 255}
)

// renderHeatmap draws an annotated grid: counts on a sequential blue scale,
// correlations on a diverging scale centered at zero.
func renderHeatmap(w io.Writer, title string, m *analysis.Matrix) error {
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("load font: %w", err)
	}
	rowLabels := make([]string, len(m.Rows))
	for i, s := range m.Rows {
		rowLabels[i] = shorten(s)
	}
	colLabels := make([]string, len(m.Cols))
	for i, s := range m.Cols {
		colLabels[i] = shorten(s)
	}

	measure, err := gochart.SVG(1, 1)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	measure.SetFont(font)
	measure.SetFontSize(labelSize)
	left := widest(measure, rowLabels) + 2*heatMargin
	colLabelH := int(float64(widest(measure, colLabels))*math.Sqrt2/2) + heatMargin
	top := 48

	width := left + len(m.Cols)*cellSize + heatMargin + 24
	height := top + len(m.Rows)*cellSize + colLabelH + heatMargin
	r, err := gochart.SVG(width, height)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	r.SetFont(font)

	r.SetFillColor(drawing.ColorWhite)
	r.SetStrokeColor(drawing.ColorWhite)
	rect(r, 0, 0, width, height)

	r.SetFontColor(drawing.ColorBlack)
	r.SetFontSize(titleSize)
	tb := r.MeasureText(title)
	r.Text(title, (width-tb.Width())/2, 24+tb.Height()/2)

	maxCount := 0.0
	if m.Counts {
		for _, row := range m.Values {
			for _, v := range row {
				if v.Valid() {
					maxCount = math.Max(maxCount, float64(v))
				}
			}
		}
	}

	r.SetStrokeWidth(1)
	for i, row := range m.Values {
		for j, v := range row {
			x, y := left+j*cellSize, top+i*cellSize
			fill := nanColor
			label := ""
			if v.Valid() {
				if m.Counts {
					fill = sequential(float64(v), maxCount)
					label = fmt.Sprintf("%.0f", float64(v))
				} else {
					fill = diverging(float64(v))
					label = fmt.Sprintf("%.2f", float64(v))
				}
			}
			r.SetFillColor(fill)
			r.SetStrokeColor(gridColor)
			rect(r, x, y, cellSize, cellSize)
			if label != "" {
				r.SetFontSize(valueSize)
				r.SetFontColor(textOn(fill))
				vb := r.MeasureText(label)
				r.Text(label, x+(cellSize-vb.Width())/2, y+(cellSize+vb.Height())/2)
			}
		}
	}

	r.SetFontSize(labelSize)
	r.SetFontColor(drawing.ColorBlack)
	for i, s := range rowLabels {
		b := r.MeasureText(s)
		r.Text(s, left-heatMargin/2-b.Width(), top+i*cellSize+(cellSize+b.Height())/2)
	}
	base := top + len(m.Rows)*cellSize + heatMargin
	r.SetTextRotation(-math.Pi / 4)
	for j, s := range colLabels {
		r.Text(s, left+j*cellSize+cellSize/2, base)
	}
	r.ClearTextRotation()

	if err := r.Save(w); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func rect(r gochart.Renderer, x, y, w, h int) {
	r.MoveTo(x, y)
	r.LineTo(x+w, y)
	r.LineTo(x+w, y+h)
	r.LineTo(x, y+h)
	r.Close()
	r.FillStroke()
}

func widest(r gochart.Renderer, labels []string) int {
	n := 0
	for _, s := range labels {
		if b := r.MeasureText(s); b.Width() > n {
			n = b.Width()
		}
	}
	return n
}

func sequential(v, hi float64) drawing.Color {
	if hi <= 0 {
		return blueLow
	}
	return lerp(blueLow, blueHigh, v/hi)
}

func diverging(v float64) drawing.Color {
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return lerp(coolMid, coolNeg, -v)
	}
	return lerp(coolMid, coolPos, v)
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 { return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t)) }
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// textOn picks black or white text for legibility on c.
func textOn(c drawing.Color) drawing.Color {
	lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if lum < 140 {
		return drawing.ColorWhite
	}
	return drawing.ColorBlack
}
