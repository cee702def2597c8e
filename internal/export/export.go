package export

// export.go: vault export. Converts a reconciled sweep report into a
// directory of linked markdown notes.
//
// Vault layout:
//   index.md                 device header and one wiki link per cable
//   cables/<tag>.md          states, limits and results of one cable
//   warnings.md              reconciliation warnings (only when present)
//
// Notes link with [[path|display]] and no .md extension. Output is
// byte-identical across runs for the same report and options.

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cablesweep/internal/render"
	"cablesweep/internal/sweep"
)

// Vault holds pre-generated page content (path → markdown).
// Paths are relative to the output directory, using forward slashes.
type Vault struct {
	pages map[string]string
}

// Paths returns the page paths in sorted order.
func (v *Vault) Paths() []string {
	paths := make([]string, 0, len(v.pages))
	for p := range v.pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Page returns the content of the page at path.
func (v *Vault) Page(path string) (string, bool) {
	s, ok := v.pages[path]
	return s, ok
}

// GenerateVault builds all vault pages for the cables shown by view.
// No files are written.
func GenerateVault(view render.View) (*Vault, error) {
	if view.Report == nil {
		return nil, fmt.Errorf("vault: no report")
	}
	pages := make(map[string]string)
	cables := view.Cables()

	names := make(map[string]string, len(cables))
	for _, c := range cables {
		id := noteName(c.Tag)
		if prev, dup := names[id]; dup {
			return nil, fmt.Errorf("vault: tags %q and %q map to the same note %q", prev, c.Tag, id)
		}
		names[id] = c.Tag
		pages["cables/"+id+".md"] = buildCablePage(view, c)
	}

	pages["index.md"] = buildIndexPage(view, cables)
	if len(view.Warnings) > 0 {
		pages["warnings.md"] = buildWarningsPage(view.Warnings)
	}
	return &Vault{pages: pages}, nil
}

// WriteVault writes all pages in vault to outputDir in sorted path order.
// Always creates the cables/ subdirectory.
func WriteVault(vault *Vault, outputDir string) error {
	if err := os.MkdirAll(filepath.Join(outputDir, "cables"), 0o755); err != nil {
		return fmt.Errorf("mkdir cables: %w", err)
	}
	for _, p := range vault.Paths() {
		abs := filepath.Join(outputDir, filepath.FromSlash(p))
		if err := writeNote(abs, vault.pages[p]); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Page builders
// ---------------------------------------------------------------------------

// buildIndexPage builds index.md, the entry point listing every cable.
func buildIndexPage(view render.View, cables []sweep.CableReport) string {
	var b strings.Builder
	b.WriteString(frontmatter([]string{"cablesweep/index"}))
	b.WriteString("# Sweep Report\n\n")

	for _, d := range view.Report.Devices {
		b.WriteString(fmt.Sprintf("- **Device**: %s, SN %s, calibrated %s\n",
			d.Model, d.SerialNumber, d.CalibrationDate.Format("2006-01-02")))
	}
	if len(view.Warnings) > 0 {
		b.WriteString(fmt.Sprintf("- **Warnings**: [[warnings|%d]]\n", len(view.Warnings)))
	}

	b.WriteString("\n## Cables\n\n")
	b.WriteString("| Cable | Finished | Length (m) | VSWR | RL (dB) |\n")
	b.WriteString("|-------|----------|------------|------|---------|\n")
	for _, c := range cables {
		r := view.Row(c)
		b.WriteString(fmt.Sprintf("| [[cables/%s|%s]] | %s | %s | %s | %s |\n",
			noteName(c.Tag), r.Tag, r.Finished, r.Length, r.VSWR, r.RL))
	}
	return b.String()
}

// buildCablePage builds cables/<tag>.md for one cable.
func buildCablePage(view render.View, c sweep.CableReport) string {
	var b strings.Builder
	b.WriteString(frontmatter(cableTags(c)))
	b.WriteString("[[index|Sweep Report]]\n\n")
	b.WriteString(strings.TrimPrefix(render.Detail(view, c), "#"))
	return b.String()
}

func buildWarningsPage(warnings []sweep.Warning) string {
	var b strings.Builder
	b.WriteString(frontmatter([]string{"cablesweep/warnings"}))
	b.WriteString("# Warnings\n\n")
	b.WriteString("| Message | Subject | Expected | Observed |\n")
	b.WriteString("|---------|---------|----------|----------|\n")
	for _, w := range warnings {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", w.Message, w.Subject, w.Expected, w.Observed))
	}
	return b.String()
}

// cableTags tags a cable note with its measured sides and pass state.
func cableTags(c sweep.CableReport) []string {
	tags := []string{"cable"}
	pass := true
	if c.DTF != nil {
		tags = append(tags, "dtf")
		pass = pass && c.DTF.Result.Pass
	}
	if c.RL != nil {
		tags = append(tags, "rl")
		pass = pass && c.RL.Result.Pass
	}
	if pass {
		tags = append(tags, "pass")
	} else {
		tags = append(tags, "fail")
	}
	return tags
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func frontmatter(tags []string) string {
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	var b strings.Builder
	b.WriteString("---\ntags:\n")
	for _, t := range sorted {
		b.WriteString("  - " + t + "\n")
	}
	b.WriteString("---\n\n")
	return b.String()
}

// sanitizeFilename replaces path separators, dots and spaces with -,
// collapses consecutive - to one, and trims leading/trailing -.
func sanitizeFilename(s string) string {
	s = strings.NewReplacer("/", "-", `\`, "-", ".", "-", " ", "-").Replace(s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	return s
}

// noteName is the file name (without .md) of a cable note.
func noteName(tag string) string {
	if id := sanitizeFilename(tag); id != "" {
		return id
	}
	return "untagged"
}

// writeNote writes content to path, creating parent directories as needed.
func writeNote(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
