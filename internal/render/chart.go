package render

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"cablesweep/internal/sweep"
)

// Metric selects the per-cable value plotted by Chart.
type Metric string

const (
	MetricVSWR   Metric = "vswr"
	MetricRL     Metric = "rl"
	MetricLength Metric = "length"
)

// ParseMetric validates a metric name. The empty string is vswr.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return MetricVSWR, nil
	case MetricVSWR, MetricRL, MetricLength:
		return m, nil
	}
	return "", fmt.Errorf("unknown metric %q (want vswr, rl or length)", s)
}

func (m Metric) label() string {
	switch m {
	case MetricRL:
		return "Return loss max (dB)"
	case MetricLength:
		return "Marker distance (m)"
	default:
		return "VSWR max"
	}
}

// value returns the metric for c, or false when the needed side is absent.
func (m Metric) value(c sweep.CableReport) (float64, bool) {
	switch m {
	case MetricRL:
		if c.RL == nil {
			return 0, false
		}
		return c.RL.Result.Max.Value, true
	case MetricLength:
		if c.DTF == nil {
			return 0, false
		}
		return c.DTF.Marker, true
	default:
		if c.DTF == nil {
			return 0, false
		}
		return c.DTF.Result.Max.Value, true
	}
}

// Chart draws a PNG bar chart with one bar per cable. Cables missing the
// measured side are left out.
type Chart struct {
	Metric Metric
	Width  vg.Length
	Height vg.Length
}

func (Chart) Name() string { return "chart" }

func (c Chart) Render(w io.Writer, v View) error {
	metric := c.Metric
	if metric == "" {
		metric = MetricVSWR
	}
	width, height := c.Width, c.Height
	if width == 0 {
		width = 8 * vg.Inch
	}
	if height == 0 {
		height = 4 * vg.Inch
	}

	var (
		values plotter.Values
		labels []string
	)
	for _, cable := range v.Cables() {
		x, ok := metric.value(cable)
		if !ok {
			continue
		}
		values = append(values, Round(x, v.Options.Precision))
		labels = append(labels, cable.Tag)
	}
	if len(values) == 0 {
		return fmt.Errorf("chart: no cables with a %s value", metric)
	}

	p := plot.New()
	p.Title.Text = "Cable sweep"
	p.Y.Label.Text = metric.label()

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	bars.Color = color.RGBA{R: 46, G: 139, B: 87, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(labels...)

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("chart: write png: %w", err)
	}
	return nil
}
