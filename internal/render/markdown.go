package render

// markdown.go: sweep report as a markdown note with YAML frontmatter.
//
// Layout:
//   ---                       frontmatter: tags, devices, counts
//   # Sweep Report
//   ## Cables                 one table row per cable
//   ## <tag>                  states, limits and results per side
//   ## Warnings               only when there are any

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"cablesweep/internal/sweep"
)

type noteMeta struct {
	Tags     []string     `yaml:"tags"`
	Devices  []deviceMeta `yaml:"devices"`
	Cables   int          `yaml:"cables"`
	Failed   []string     `yaml:"failed,omitempty"`
	Warnings int          `yaml:"warnings"`
}

type deviceMeta struct {
	Model           string `yaml:"model"`
	SerialNumber    string `yaml:"serial_number"`
	CalibrationDate string `yaml:"calibration_date"`
}

// Markdown writes a note suitable for a documentation vault.
type Markdown struct{}

func (Markdown) Name() string { return "markdown" }

func (Markdown) Render(w io.Writer, v View) error {
	cables := v.Cables()

	meta := noteMeta{
		Tags:     []string{"cablesweep/report"},
		Cables:   len(cables),
		Failed:   failedTags(cables),
		Warnings: len(v.Warnings),
	}
	if v.Report != nil {
		for _, d := range v.Report.Devices {
			meta.Devices = append(meta.Devices, deviceMeta{
				Model:           d.Model,
				SerialNumber:    d.SerialNumber,
				CalibrationDate: d.CalibrationDate.Format(calDateLayout),
			})
		}
	}

	doc, err := writeFrontmatter(meta, buildReportPage(v, cables))
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}

// writeFrontmatter marshals meta as YAML frontmatter and appends body.
func writeFrontmatter(meta any, body string) ([]byte, error) {
	fm, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: marshal: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// failedTags lists cables with at least one failing side.
func failedTags(cables []sweep.CableReport) []string {
	var tags []string
	for _, c := range cables {
		if (c.DTF != nil && !c.DTF.Result.Pass) || (c.RL != nil && !c.RL.Result.Pass) {
			tags = append(tags, c.Tag)
		}
	}
	return tags
}

// ---------------------------------------------------------------------------
// Page builders
// ---------------------------------------------------------------------------

func buildReportPage(v View, cables []sweep.CableReport) string {
	var b strings.Builder
	b.WriteString("# Sweep Report\n\n")

	b.WriteString("## Cables\n\n")
	b.WriteString("| Tag | Finished | Length (m) | VSWR | RL (dB) | Pass |\n")
	b.WriteString("|-----|----------|------------|------|---------|------|\n")
	for _, c := range cables {
		r := v.Row(c)
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			r.Tag, r.Finished, r.Length, r.VSWR, r.RL, passMark(c)))
	}

	for _, c := range cables {
		b.WriteString("\n" + Detail(v, c))
	}

	if len(v.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range v.Warnings {
			b.WriteString("- " + w.String() + "\n")
		}
	}
	return b.String()
}

// Detail describes the states, limits and results of one cable. The
// interactive browser shows it in its detail pane.
func Detail(v View, c sweep.CableReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("## %s\n", c.Tag))

	if d := c.DTF; d != nil {
		b.WriteString("\n### DTF\n\n")
		b.WriteString(fmt.Sprintf("- **State**: `%s` (%d to %d kHz, %d points, %d m, %s dB/m)\n",
			d.StateID, d.State.RxKHz[0], d.State.RxKHz[1], d.State.Points, d.State.LimitDistance, v.Number(d.State.CableLoss)))
		b.WriteString(fmt.Sprintf("- **Limit**: %s %s %s\n", d.State.Limit.Type, d.State.Limit.Reference, d.State.Limit.Unit))
		b.WriteString(fmt.Sprintf("- **Marker**: %s m\n", v.Number(d.Marker)))
		writeResult(&b, v, d.Result)
	}
	if r := c.RL; r != nil {
		b.WriteString("\n### RL\n\n")
		b.WriteString(fmt.Sprintf("- **State**: `%s` (%d points)\n", r.StateID, r.State.Points))
		b.WriteString(fmt.Sprintf("- **Limit**: %s %s %s\n", r.State.Limit.Type, r.State.Limit.Reference, r.State.Limit.Unit))
		writeResult(&b, v, r.Result)
	}
	return b.String()
}

func writeResult(b *strings.Builder, v View, r sweep.TestResult) {
	b.WriteString(fmt.Sprintf("- **Ports**: %d/%d\n", r.P1, r.P2))
	b.WriteString(fmt.Sprintf("- **Max**: %s at %s\n", v.Number(r.Max.Value), v.Number(r.Max.Position)))
	b.WriteString(fmt.Sprintf("- **Min**: %s at %s\n", v.Number(r.Min.Value), v.Number(r.Min.Position)))
	b.WriteString(fmt.Sprintf("- **Average**: %s, **Ripple**: %s\n", v.Number(r.Average), v.Number(r.Ripple)))
	b.WriteString(fmt.Sprintf("- **Pass**: %t\n", r.Pass))
	if r.Time != nil {
		b.WriteString(fmt.Sprintf("- **Measured**: %s\n", r.Time.Format(finishedLayout)))
	}
	if r.Calibrated != nil {
		b.WriteString(fmt.Sprintf("- **Calibrated**: %s\n", r.Calibrated))
	}
}

func passMark(c sweep.CableReport) string {
	if (c.DTF != nil && !c.DTF.Result.Pass) || (c.RL != nil && !c.RL.Result.Pass) {
		return "fail"
	}
	return "pass"
}
