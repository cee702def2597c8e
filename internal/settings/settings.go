// Package settings loads cablesweep configuration from
// .cablesweep/settings.yaml next to a report, or from an explicit path.
//
// The display exclude list uses the same glob dialect as path deny rules:
// "PREFIX/**" matches a tag family, other patterns use filepath.Match.
package settings

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"cablesweep/internal/sweep"
)

// DefaultPrecision is the number of decimal places used by the summary when
// the settings file does not set one.
const DefaultPrecision = 2

// Settings holds cablesweep configuration. A nil *Settings behaves as the
// defaults on every method.
type Settings struct {
	Reconcile Reconcile `yaml:"reconcile"`
	Display   Display   `yaml:"display"`
	Log       Log       `yaml:"log"`
}

// Reconcile controls how the engine treats ambiguous bundles.
type Reconcile struct {
	// DuplicateTests is one of overwrite, warn or error.
	DuplicateTests string `yaml:"duplicate_tests"`
	// RequireCSVForRL defaults to true when omitted.
	RequireCSVForRL *bool `yaml:"require_csv_for_rl"`
}

// Display controls rendering.
type Display struct {
	SortByTag *bool `yaml:"sort_by_tag"`
	Precision *int  `yaml:"precision"`
	// Exclude hides cables whose tag matches any glob.
	// Example: ["SPARE-*", "LAB/**"]
	Exclude []string `yaml:"exclude"`
}

type Log struct {
	Level string `yaml:"level"`
}

// LoadSettings reads .cablesweep/settings.yaml relative to root, normally the
// directory holding Report.xml. Returns nil (not an error) if the file does
// not exist.
func LoadSettings(root string) (*Settings, error) {
	path := filepath.Join(root, ".cablesweep", "settings.yaml")
	s, err := load(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return s, err
}

// Load reads the settings file at path. Unlike LoadSettings a missing file
// is an error.
func Load(path string) (*Settings, error) {
	return load(path)
}

func load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Validate rejects unknown enum values and malformed globs.
func (s *Settings) Validate() error {
	if s == nil {
		return nil
	}
	if _, err := sweep.ParseDuplicatePolicy(s.Reconcile.DuplicateTests); err != nil {
		return fmt.Errorf("reconcile.duplicate_tests: %w", err)
	}
	if p := s.Display.Precision; p != nil && (*p < 0 || *p > 12) {
		return fmt.Errorf("display.precision: %d out of range 0..12", *p)
	}
	for _, pattern := range s.Display.Exclude {
		if _, err := filepath.Match(strings.TrimSuffix(pattern, "/**"), "-"); err != nil {
			return fmt.Errorf("display.exclude %q: %w", pattern, err)
		}
	}
	if _, err := ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// EngineOptions converts the reconcile section into engine options.
// Validate must have succeeded.
func (s *Settings) EngineOptions() []sweep.Option {
	if s == nil {
		return nil
	}
	var opts []sweep.Option
	if p, err := sweep.ParseDuplicatePolicy(s.Reconcile.DuplicateTests); err == nil {
		opts = append(opts, sweep.WithDuplicatePolicy(p))
	}
	if s.Reconcile.RequireCSVForRL != nil {
		opts = append(opts, sweep.WithRequireCSVForRL(*s.Reconcile.RequireCSVForRL))
	}
	return opts
}

// SortByTag reports whether rendered cables are ordered by tag. Defaults to true.
func (s *Settings) SortByTag() bool {
	if s == nil || s.Display.SortByTag == nil {
		return true
	}
	return *s.Display.SortByTag
}

func (s *Settings) Precision() int {
	if s == nil || s.Display.Precision == nil {
		return DefaultPrecision
	}
	return *s.Display.Precision
}

// LogLevel returns the configured level, or info.
func (s *Settings) LogLevel() slog.Level {
	if s == nil {
		return slog.LevelInfo
	}
	l, _ := ParseLevel(s.Log.Level)
	return l
}

// IsExcluded reports whether tag matches any display exclude glob. Safe to
// call on a nil *Settings receiver.
func (s *Settings) IsExcluded(tag string) bool {
	if s == nil {
		return false
	}
	for _, rule := range s.Display.Exclude {
		if matchTagPattern(strings.TrimSpace(rule), tag) {
			return true
		}
	}
	return false
}

// matchTagPattern reports whether tag matches a glob pattern.
//
// "prefix/**" matches the prefix itself and every tag beneath it.
// All other patterns use filepath.Match semantics (single * does not cross /).
func matchTagPattern(pattern, tag string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return tag == prefix || strings.HasPrefix(tag, prefix+"/")
	}
	matched, _ := filepath.Match(pattern, tag)
	return matched
}

// ParseLevel maps a level name to a slog.Level. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown level %q (want debug, info, warn or error)", s)
}
