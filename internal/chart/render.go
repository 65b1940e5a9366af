package chart

import (
	"fmt"
	"io"
	"strings"

	"github.com/diversityiq/backend/internal/models"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	DefaultWidth  = 512
	DefaultHeight = 512

	noDataText = "No data to display"
)

// Renderer draws series at a fixed size.
type Renderer struct {
	width  int
	height int
}

// NewRenderer creates a renderer; non-positive sizes fall back to defaults.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{width: width, height: height}
}

// Render writes s as a PNG, choosing pie or bar by s.Kind. Series with
// nothing drawable produce a placeholder image instead of an error.
func (r *Renderer) Render(w io.Writer, s models.Series) error {
	if !Registered() {
		return ErrNotRegistered
	}
	if len(s.Labels) != len(s.Values) {
		return fmt.Errorf("series %q has %d labels and %d values", s.Title, len(s.Labels), len(s.Values))
	}

	switch s.Kind {
	case models.ChartPie:
		return r.renderPie(w, s)
	case models.ChartBar:
		return r.renderBar(w, s)
	default:
		return fmt.Errorf("unknown chart kind %q", s.Kind)
	}
}

func (r *Renderer) renderPie(w io.Writer, s models.Series) error {
	// go-chart drops non-positive slices and refuses an empty pie.
	values := make([]gochart.Value, 0, len(s.Values))
	for i, v := range s.Values {
		if v <= 0 {
			continue
		}
		values = append(values, gochart.Value{
			Label: s.Labels[i],
			Value: v,
			Style: gochart.Style{FillColor: colorAt(s.Colors, i), StrokeColor: drawing.ColorWhite},
		})
	}
	if len(values) == 0 {
		return r.renderPlaceholder(w, s.Title)
	}

	pie := gochart.PieChart{
		Title:      s.Title,
		TitleStyle: gochart.Style{FontSize: 14},
		Width:      r.width,
		Height:     r.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Values:     values,
	}
	if err := pie.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("rendering pie chart: %w", err)
	}
	return nil
}

func (r *Renderer) renderBar(w io.Writer, s models.Series) error {
	if len(s.Values) == 0 {
		return r.renderPlaceholder(w, s.Title)
	}

	bars := make([]gochart.Value, 0, len(s.Values))
	minV, maxV := 0.0, 0.0
	for i, v := range s.Values {
		bars = append(bars, gochart.Value{
			Label: s.Labels[i],
			Value: v,
			Style: gochart.Style{FillColor: colorAt(s.Colors, i), StrokeColor: colorAt(s.Colors, i)},
		})
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if maxV == minV {
		maxV = minV + 1
	}

	bar := gochart.BarChart{
		Title:      s.Title,
		TitleStyle: gochart.Style{FontSize: 14},
		Width:      r.width,
		Height:     r.height,
		BarWidth:   r.barWidth(len(bars)),
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.Style{FontSize: 10},
		YAxis: gochart.YAxis{
			Style: gochart.Style{FontSize: 10},
			Range: &gochart.ContinuousRange{Min: minV, Max: maxV * 1.1},
		},
		Bars: bars,
	}
	if err := bar.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("rendering bar chart: %w", err)
	}
	return nil
}

// barWidth fits n bars with spacing into the plot width.
func (r *Renderer) barWidth(n int) int {
	usable := r.width - 120
	bw := usable / (n * 2)
	switch {
	case bw < 4:
		return 4
	case bw > 60:
		return 60
	}
	return bw
}

func (r *Renderer) renderPlaceholder(w io.Writer, title string) error {
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("loading chart font: %w", err)
	}
	rr, err := gochart.PNG(r.width, r.height)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	rr.SetFillColor(drawing.ColorWhite)
	rr.MoveTo(0, 0)
	rr.LineTo(r.width, 0)
	rr.LineTo(r.width, r.height)
	rr.LineTo(0, r.height)
	rr.Close()
	rr.Fill()

	rr.SetFont(font)
	rr.SetFontColor(drawing.ColorFromHex("333333"))
	rr.SetFontSize(14)
	tb := rr.MeasureText(title)
	rr.Text(title, (r.width-tb.Width())/2, 32)

	rr.SetFontColor(drawing.ColorFromHex("888888"))
	rr.SetFontSize(12)
	tb = rr.MeasureText(noDataText)
	rr.Text(noDataText, (r.width-tb.Width())/2, r.height/2)

	return rr.Save(w)
}

// colorAt cycles through a "#RRGGBB" palette.
func colorAt(palette []string, i int) drawing.Color {
	if len(palette) == 0 {
		return gochart.ColorBlue
	}
	return drawing.ColorFromHex(strings.TrimPrefix(palette[i%len(palette)], "#"))
}
