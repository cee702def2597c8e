// Package render presents a reconciled sweep report. Each output format is a
// Renderer registered by name; the CLI picks one with --format.
package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"cablesweep/internal/settings"
	"cablesweep/internal/sweep"
)

// Renderer is the interface every output format implements.
type Renderer interface {
	// Name returns the format's canonical short identifier (e.g. "summary").
	Name() string

	// Render writes v to w.
	Render(w io.Writer, v View) error
}

// renderers is the registry of available output formats.
var renderers = map[string]Renderer{
	"summary":  Summary{},
	"yaml":     YAML{},
	"markdown": Markdown{},
	"chart":    Chart{Metric: MetricVSWR},
}

// Lookup returns the renderer registered under name.
func Lookup(name string) (Renderer, error) {
	r, ok := renderers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (want %s)", name, strings.Join(Names(), ", "))
	}
	return r, nil
}

// Names lists the registered formats in sorted order.
func Names() []string {
	names := make([]string, 0, len(renderers))
	for n := range renderers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// Options controls which cables are shown and how numbers are printed.
type Options struct {
	SortByTag bool
	Precision int
	// Exclude hides a cable when it returns true for its tag.
	Exclude func(tag string) bool
}

// DefaultOptions sorts by tag and prints two decimal places.
func DefaultOptions() Options {
	return Options{SortByTag: true, Precision: settings.DefaultPrecision}
}

// OptionsFrom reads the display section of s. s may be nil.
func OptionsFrom(s *settings.Settings) Options {
	return Options{
		SortByTag: s.SortByTag(),
		Precision: s.Precision(),
		Exclude:   s.IsExcluded,
	}
}

// View is everything a Renderer needs.
type View struct {
	Report   *sweep.SweepReport
	Warnings []sweep.Warning
	Options  Options
}

// Cables returns the cables to display, with excluded tags removed and,
// when requested, sorted by tag. The report itself is not modified.
func (v View) Cables() []sweep.CableReport {
	if v.Report == nil {
		return nil
	}
	out := make([]sweep.CableReport, 0, len(v.Report.Reports))
	for _, c := range v.Report.Reports {
		if v.Options.Exclude != nil && v.Options.Exclude(c.Tag) {
			continue
		}
		out = append(out, c)
	}
	if v.Options.SortByTag {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	}
	return out
}

// Number formats x rounded to the view's precision.
func (v View) Number(x float64) string {
	return strconv.FormatFloat(Round(x, v.Options.Precision), 'f', -1, 64)
}

// Round rounds x to places decimals, halves away from zero. The scaled value
// is first normalized to 15 significant digits so that decimal halves such
// as 1.305 are not lost to binary representation.
func Round(x float64, places int) float64 {
	p := math.Pow10(places)
	scaled, err := strconv.ParseFloat(strconv.FormatFloat(x*p, 'g', 15, 64), 64)
	if err != nil {
		return x
	}
	return math.Round(scaled) / p
}

// ---------------------------------------------------------------------------
// Per-cable columns
// ---------------------------------------------------------------------------

const finishedLayout = "2006-01-02 15:04"

// absent marks a column whose side of the cable was not measured.
const absent = "-"

// Row is the tabular form of one cable shared by the text renderers and the
// interactive browser.
type Row struct {
	Tag      string
	Finished string
	Length   string
	VSWR     string
	RL       string
}

// Rows builds one Row per displayed cable.
func (v View) Rows() []Row {
	cables := v.Cables()
	rows := make([]Row, 0, len(cables))
	for _, c := range cables {
		rows = append(rows, v.Row(c))
	}
	return rows
}

func (v View) Row(c sweep.CableReport) Row {
	r := Row{Tag: c.Tag, Finished: absent, Length: absent, VSWR: absent, RL: absent}
	if t, ok := c.Finished(); ok {
		r.Finished = t.Format(finishedLayout)
	}
	if c.DTF != nil {
		r.Length = v.Number(c.DTF.Marker)
		r.VSWR = v.Number(c.DTF.Result.Max.Value)
	}
	if c.RL != nil {
		r.RL = v.Number(c.RL.Result.Max.Value)
	}
	return r
}
