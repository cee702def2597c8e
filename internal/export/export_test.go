package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cablesweep/internal/bundle"
	"cablesweep/internal/render"
	"cablesweep/internal/sweep"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func fixtureView(t *testing.T) render.View {
	t.Helper()
	b, dir, err := bundle.Load(filepath.Join("..", "bundle", "testdata", "Report.xml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rep, warnings, err := sweep.NewEngine(dir).Reconcile(b)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	return render.View{Report: rep, Warnings: warnings, Options: render.DefaultOptions()}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("readFile %s: %v", path, err)
	}
	return string(data)
}

// writeVault is a test helper that generates and writes a vault, failing on error.
func writeVault(t *testing.T, v render.View, dir string) {
	t.Helper()
	vault, err := GenerateVault(v)
	if err != nil {
		t.Fatalf("GenerateVault: %v", err)
	}
	if err := WriteVault(vault, dir); err != nil {
		t.Fatalf("WriteVault: %v", err)
	}
}

// ---------------------------------------------------------------------------
// sanitizeFilename
// ---------------------------------------------------------------------------

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		// Separators become dashes.
		{"SITE/CABLE-1", "SITE-CABLE-1"},
		{`SITE\CABLE-1`, "SITE-CABLE-1"},
		// Dots and spaces become dashes.
		{"A1.2", "A1-2"},
		{"Sector A feeder", "Sector-A-feeder"},
		// Consecutive separators collapse.
		{"a//b", "a-b"},
		{"a. b", "a-b"},
		// Leading/trailing trimmed.
		{"/leading", "leading"},
		{"trailing.", "trailing"},
		// Already clean.
		{"CABLE-1", "CABLE-1"},
	}
	for _, tc := range tests {
		got := sanitizeFilename(tc.input)
		if got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
	if got := noteName("..."); got != "untagged" {
		t.Errorf("noteName(...) = %q, want untagged", got)
	}
}

// ---------------------------------------------------------------------------
// Vault layout
// ---------------------------------------------------------------------------

func TestWriteVault_Layout(t *testing.T) {
	dir := t.TempDir()
	writeVault(t, fixtureView(t), dir)

	for _, p := range []string{"index.md", "cables/CABLE-1.md", "cables/CABLE-2.md"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err != nil {
			t.Errorf("expected %s: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "warnings.md")); err == nil {
		t.Error("warnings.md written without warnings")
	}
}

func TestGenerateVault_IndexLinks(t *testing.T) {
	vault, err := GenerateVault(fixtureView(t))
	if err != nil {
		t.Fatalf("GenerateVault: %v", err)
	}
	index, ok := vault.Page("index.md")
	if !ok {
		t.Fatal("index.md missing")
	}
	for _, want := range []string{
		"---\ntags:\n  - cablesweep/index\n---\n\n# Sweep Report\n",
		"- **Device**: SiteHawk 400, SN SN-0042, calibrated 2024-03-01\n",
		"| [[cables/CABLE-1|CABLE-1]] | 2024-05-14 10:14 | 17.13 | 1.31 | -18.01 |\n",
		"| [[cables/CABLE-2|CABLE-2]] | 2024-05-14 10:05 | 24.38 | 1.23 | -16.46 |\n",
	} {
		if !strings.Contains(index, want) {
			t.Errorf("index.md missing %q:\n%s", want, index)
		}
	}
	if strings.Contains(index, ".md]]") {
		t.Error("wiki links must not carry the .md extension")
	}
}

func TestGenerateVault_CablePage(t *testing.T) {
	v := fixtureView(t)
	v.Report.Reports[0].RL.Result.Pass = false // CABLE-2

	vault, err := GenerateVault(v)
	if err != nil {
		t.Fatalf("GenerateVault: %v", err)
	}
	page, _ := vault.Page("cables/CABLE-2.md")
	for _, want := range []string{
		"tags:\n  - cable\n  - dtf\n  - fail\n  - rl\n",
		"[[index|Sweep Report]]\n\n# CABLE-2\n",
		"### DTF\n",
		"- **Marker**: 24.38 m\n",
		"### RL\n",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("cable page missing %q:\n%s", want, page)
		}
	}
}

func TestGenerateVault_Warnings(t *testing.T) {
	v := fixtureView(t)
	v.Warnings = []sweep.Warning{{Message: "Duplicate test for tag", Subject: "CABLE-1 DTF", Expected: "1", Observed: "2"}}

	vault, err := GenerateVault(v)
	if err != nil {
		t.Fatalf("GenerateVault: %v", err)
	}
	page, ok := vault.Page("warnings.md")
	if !ok {
		t.Fatal("warnings.md missing")
	}
	if !strings.Contains(page, "| Duplicate test for tag | CABLE-1 DTF | 1 | 2 |\n") {
		t.Errorf("unexpected warnings page:\n%s", page)
	}
	index, _ := vault.Page("index.md")
	if !strings.Contains(index, "[[warnings|1]]") {
		t.Errorf("index should link warnings:\n%s", index)
	}
}

func TestGenerateVault_ExcludedCables(t *testing.T) {
	v := fixtureView(t)
	v.Options.Exclude = func(tag string) bool { return tag == "CABLE-1" }

	vault, err := GenerateVault(v)
	if err != nil {
		t.Fatalf("GenerateVault: %v", err)
	}
	if _, ok := vault.Page("cables/CABLE-1.md"); ok {
		t.Error("excluded cable got a note")
	}
	want := []string{"cables/CABLE-2.md", "index.md"}
	if got := vault.Paths(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
}

func TestGenerateVault_NameCollision(t *testing.T) {
	v := render.View{
		Report: &sweep.SweepReport{Reports: []sweep.CableReport{
			{Tag: "A/1", RL: &sweep.RlSide{}},
			{Tag: "A.1", RL: &sweep.RlSide{}},
		}},
		Options: render.DefaultOptions(),
	}
	if _, err := GenerateVault(v); err == nil {
		t.Fatal("expected collision error")
	}
}

func TestWriteVault_Idempotent(t *testing.T) {
	v := fixtureView(t)
	dir1, dir2 := t.TempDir(), t.TempDir()
	writeVault(t, v, dir1)
	writeVault(t, v, dir2)

	for _, p := range []string{"index.md", "cables/CABLE-1.md", "cables/CABLE-2.md"} {
		a := readFile(t, filepath.Join(dir1, filepath.FromSlash(p)))
		b := readFile(t, filepath.Join(dir2, filepath.FromSlash(p)))
		if a != b {
			t.Errorf("%s differs between runs", p)
		}
	}
}
