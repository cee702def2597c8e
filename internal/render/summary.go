package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const calDateLayout = "2006-01-02 15:04:05 -07:00"

// Summary prints a device header and one line per cable. Colors are only
// emitted when the writer is a terminal.
type Summary struct{}

func (Summary) Name() string { return "summary" }

func (Summary) Render(w io.Writer, v View) error {
	r := lipgloss.NewRenderer(w)
	var (
		heading = r.NewStyle().Foreground(lipgloss.Color("2")).Underline(true)
		label   = r.NewStyle().Foreground(lipgloss.Color("2"))
		stamp   = r.NewStyle().Foreground(lipgloss.Color("1"))
		value   = r.NewStyle().Foreground(lipgloss.Color("3"))
		warn    = r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	)

	var b strings.Builder
	if v.Report != nil {
		for _, d := range v.Report.Devices {
			fmt.Fprintf(&b, "\n%s Model: %s, SN: %s, Cal Date: %s\n",
				heading.Render("Device:"),
				value.Render(d.Model),
				value.Render(d.SerialNumber),
				value.Render(d.CalibrationDate.Format(calDateLayout)))
		}
		b.WriteString("\n")
	}

	for _, row := range v.Rows() {
		line := fmt.Sprintf("%s: %-15s %s: %-16s %s: %-6s %s: %-6s %s: %-6s",
			label.Render("Tag"), row.Tag,
			stamp.Render("T+"), row.Finished,
			label.Render("Length"), row.Length,
			label.Render("VSWR"), row.VSWR,
			label.Render("RL"), row.RL)
		b.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	if len(v.Warnings) > 0 {
		b.WriteString("\n" + warn.Render("Warnings:") + "\n")
		for _, wn := range v.Warnings {
			b.WriteString("  - " + wn.String() + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
