package web

import (
	"fmt"
	"html"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/agroscan/agroscan/pkg/models"
)

// Chart geometry in SVG user units.
const (
	chartWidth   = 520
	chartHeight  = 300
	marginLeft   = 44
	marginRight  = 16
	marginTop    = 16
	marginBottom = 56
	chartColor   = "#2E7D32"
	yTicks       = 4
)

// axisMax returns a round upper bound for values up to peak and the tick step.
func axisMax(peak float64) (float64, float64) {
	if peak <= 0 {
		return yTicks, 1
	}
	raw := peak / yTicks
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		step = m * mag
		if step >= raw {
			break
		}
	}
	return math.Ceil(peak/step) * step, step
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type plot struct {
	b      strings.Builder
	top    float64
	width  float64
	height float64
}

func newPlot(peak float64, label string) *plot {
	p := &plot{
		width:  chartWidth - marginLeft - marginRight,
		height: chartHeight - marginTop - marginBottom,
	}
	top, step := axisMax(peak)
	p.top = top

	fmt.Fprintf(&p.b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-label="%s" class="chart">`,
		chartWidth, chartHeight, html.EscapeString(label))
	for v := 0.0; v <= top+step/2; v += step {
		y := p.y(v)
		fmt.Fprintf(&p.b, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#ccc" stroke-dasharray="3 3"/>`,
			marginLeft, y, chartWidth-marginRight, y)
		fmt.Fprintf(&p.b, `<text x="%d" y="%.1f" text-anchor="end" font-size="11" fill="#666">%s</text>`,
			marginLeft-6, y+4, formatTick(v))
	}
	fmt.Fprintf(&p.b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#666"/>`,
		marginLeft, marginTop, marginLeft, chartHeight-marginBottom)
	fmt.Fprintf(&p.b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#666"/>`,
		marginLeft, chartHeight-marginBottom, chartWidth-marginRight, chartHeight-marginBottom)
	return p
}

func (p *plot) y(v float64) float64 {
	return marginTop + p.height - v/p.top*p.height
}

func (p *plot) xLabel(x float64, label string) {
	fmt.Fprintf(&p.b, `<text x="%.1f" y="%d" text-anchor="middle" font-size="11" fill="#666">%s</text>`,
		x, chartHeight-marginBottom+16, html.EscapeString(label))
}

func (p *plot) legend(name string) template.HTML {
	x := chartWidth/2 - 50
	y := chartHeight - 14
	fmt.Fprintf(&p.b, `<rect x="%d" y="%d" width="12" height="12" fill="%s"/>`, x, y-10, chartColor)
	fmt.Fprintf(&p.b, `<text x="%d" y="%d" font-size="12" fill="%s">%s</text>`, x+18, y, chartColor, html.EscapeString(name))
	p.b.WriteString(`</svg>`)
	return template.HTML(p.b.String())
}

// BarChart renders the class distribution as an SVG bar chart.
func BarChart(counts []models.ClassCount) template.HTML {
	peak := 0.0
	for _, c := range counts {
		peak = math.Max(peak, float64(c.Count))
	}
	p := newPlot(peak, "Class Distribution")

	if len(counts) > 0 {
		slot := p.width / float64(len(counts))
		barWidth := slot * 0.6
		for i, c := range counts {
			x := marginLeft + slot*float64(i) + (slot-barWidth)/2
			y := p.y(float64(c.Count))
			fmt.Fprintf(&p.b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s: %d</title></rect>`,
				x, y, barWidth, marginTop+p.height-y, chartColor, html.EscapeString(string(c.Class)), c.Count)
			p.xLabel(x+barWidth/2, string(c.Class))
		}
	}
	return p.legend("Number of Samples")
}

// LineChart renders infection percentages over time as an SVG line chart.
func LineChart(points []models.InfectionPoint) template.HTML {
	peak := 0.0
	for _, pt := range points {
		peak = math.Max(peak, pt.Percent)
	}
	p := newPlot(peak, "Infection % Over Time")

	if len(points) > 0 {
		step := 0.0
		if len(points) > 1 {
			step = p.width / float64(len(points)-1)
		}
		xs := make([]float64, len(points))
		coords := make([]string, len(points))
		for i, pt := range points {
			xs[i] = marginLeft + step*float64(i)
			if len(points) == 1 {
				xs[i] = marginLeft + p.width/2
			}
			coords[i] = fmt.Sprintf("%.1f,%.1f", xs[i], p.y(pt.Percent))
			p.xLabel(xs[i], pt.Label)
		}
		fmt.Fprintf(&p.b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(coords, " "), chartColor)
		for i, pt := range points {
			fmt.Fprintf(&p.b, `<circle cx="%.1f" cy="%.1f" r="4" fill="#fff" stroke="%s" stroke-width="2"><title>%s: %s%%</title></circle>`,
				xs[i], p.y(pt.Percent), chartColor, html.EscapeString(pt.Label), formatTick(pt.Percent))
		}
	}
	return p.legend("Infection %")
}
