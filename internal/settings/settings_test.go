package settings

// settings_test.go: tests for settings loading, validation and tag globs.

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"cablesweep/internal/bundle"
	"cablesweep/internal/sweep"
)

func writeSettings(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, ".cablesweep"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".cablesweep", "settings.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// matchTagPattern
// ---------------------------------------------------------------------------

func TestMatchTagPattern(t *testing.T) {
	tests := []struct {
		pattern string
		tag     string
		want    bool
	}{
		// /** matches the prefix itself.
		{"LAB/**", "LAB", true},
		// /** matches tags beneath it.
		{"LAB/**", "LAB/CABLE-1", true},
		{"LAB/**", "LAB/A/CABLE-1", true},
		// /** does not match a nested family elsewhere.
		{"LAB/**", "SITE/LAB/CABLE-1", false},
		{"LAB/**", "LABEL", false},
		// Single * stays within one segment.
		{"SPARE-*", "SPARE-3", true},
		{"SPARE-*", "SITE/SPARE-3", false},
		{"CABLE-?", "CABLE-7", true},
		{"CABLE-?", "CABLE-17", false},
		// Exact match.
		{"CABLE-1", "CABLE-1", true},
		{"CABLE-1", "CABLE-10", false},
	}
	for _, tc := range tests {
		got := matchTagPattern(tc.pattern, tc.tag)
		if got != tc.want {
			t.Errorf("matchTagPattern(%q, %q) = %v, want %v", tc.pattern, tc.tag, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func TestSettings_NilReceiver(t *testing.T) {
	var s *Settings
	if s.IsExcluded("anything") {
		t.Error("nil Settings.IsExcluded should always return false")
	}
	if !s.SortByTag() {
		t.Error("nil Settings should sort by tag")
	}
	if s.Precision() != DefaultPrecision {
		t.Errorf("Precision() = %d, want %d", s.Precision(), DefaultPrecision)
	}
	if s.LogLevel() != slog.LevelInfo {
		t.Errorf("LogLevel() = %v, want info", s.LogLevel())
	}
	if s.EngineOptions() != nil {
		t.Error("nil Settings should add no engine options")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.input)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}

// ---------------------------------------------------------------------------
// LoadSettings
// ---------------------------------------------------------------------------

func TestLoadSettings_FileNotExist(t *testing.T) {
	dir := t.TempDir()
	s, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("expected nil error for missing file, got: %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil settings for missing file, got: %+v", s)
	}
}

func TestLoad_FileNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "custom.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error for explicit path, got: %v", err)
	}
}

func TestLoadSettings_ValidFile(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, `
reconcile:
  duplicate_tests: warn
  require_csv_for_rl: false
display:
  sort_by_tag: false
  precision: 3
  exclude:
    - "SPARE-*"
    - "LAB/**"
log:
  level: debug
`)

	s, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s == nil {
		t.Fatal("expected non-nil settings")
	}
	if s.SortByTag() {
		t.Error("sort_by_tag: false was ignored")
	}
	if s.Precision() != 3 {
		t.Errorf("Precision() = %d, want 3", s.Precision())
	}
	if s.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want debug", s.LogLevel())
	}
	if !s.IsExcluded("SPARE-1") || !s.IsExcluded("LAB/X") {
		t.Error("expected exclude globs to match")
	}
	if s.IsExcluded("CABLE-1") {
		t.Error("CABLE-1 should not be excluded")
	}
	if n := len(s.EngineOptions()); n != 2 {
		t.Errorf("expected 2 engine options, got %d", n)
	}
}

func TestLoadSettings_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "display:\n  exclude: [\"X\"]\n")

	s, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if !s.SortByTag() || s.Precision() != DefaultPrecision || s.LogLevel() != slog.LevelInfo {
		t.Errorf("unexpected defaults: sort=%v precision=%d level=%v", s.SortByTag(), s.Precision(), s.LogLevel())
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := map[string]string{
		"yaml":      ":\tbad yaml:",
		"policy":    "reconcile:\n  duplicate_tests: merge\n",
		"precision": "display:\n  precision: -1\n",
		"glob":      "display:\n  exclude: [\"[\"]\n",
		"level":     "log:\n  level: verbose\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeSettings(t, dir, content)
			if _, err := LoadSettings(dir); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// EngineOptions
// ---------------------------------------------------------------------------

// TestEngineOptions_Applied reconciles two RL tests on one tag that carry no
// CSV asset. With the CSV requirement lifted, the error policy must be what
// rejects the bundle.
func TestEngineOptions_Applied(t *testing.T) {
	no := false
	s := &Settings{Reconcile: Reconcile{DuplicateTests: "error", RequireCSVForRL: &no}}

	rlTest := func(id string) bundle.Test {
		return bundle.Test{
			ID:      id,
			StateID: "S-RL",
			Tags:    []bundle.TagEntry{{Tag: []string{"CABLE-1"}}},
			Results: bundle.Results{TestResult: bundle.TestResult{
				Unit: "dB", P1: "1", P2: "1",
				Maximum: "1800:-15", Minimum: "1700:-30",
				Average: "-20", Ripple: "1", Pass: "true",
			}},
		}
	}
	b := &bundle.Bundle{
		States: bundle.States{State: []bundle.State{{
			ID: "S-RL", Points: "201",
			Limits: bundle.Limits{Limit: []bundle.Limit{{Reference: "-14"}}},
		}}},
		Reports: bundle.Reports{Report: []bundle.Report{{
			Items: bundle.Items{Test: []bundle.Test{rlTest("T-1"), rlTest("T-2")}},
		}}},
	}

	_, _, err := sweep.NewEngine(t.TempDir(), s.EngineOptions()...).Reconcile(b)
	if !errors.Is(err, sweep.ErrDuplicateTest) {
		t.Fatalf("expected ErrDuplicateTest, got %v", err)
	}
}
