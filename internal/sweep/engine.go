package sweep

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"cablesweep/internal/bundle"
)

// DuplicatePolicy decides what happens when a tag receives a second test of
// a family it already has.
type DuplicatePolicy string

const (
	// DuplicateOverwrite keeps the last test silently.
	DuplicateOverwrite DuplicatePolicy = "overwrite"
	// DuplicateWarn keeps the last test and records a Warning.
	DuplicateWarn DuplicatePolicy = "warn"
	// DuplicateError aborts reconciliation with ErrDuplicateTest.
	DuplicateError DuplicatePolicy = "error"
)

// ParseDuplicatePolicy validates a policy name. The empty string selects
// DuplicateOverwrite.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DuplicateOverwrite, nil
	case DuplicateOverwrite, DuplicateWarn, DuplicateError:
		return p, nil
	}
	return "", fmt.Errorf("unknown duplicate test policy %q (want overwrite, warn or error)", s)
}

const duplicateTestMessage = "Duplicate test for tag"

// Engine reconciles bundles. An Engine holds no per-run state and may be
// reused.
type Engine struct {
	markers         MarkerReader
	duplicates      DuplicatePolicy
	requireCSVForRL bool
	log             *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMarkerReader replaces the file-based marker reader.
func WithMarkerReader(m MarkerReader) Option {
	return func(e *Engine) {
		e.markers = m
	}
}

// WithDuplicatePolicy sets how repeated tag/family pairs are handled.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(e *Engine) {
		e.duplicates = p
	}
}

// WithRequireCSVForRL controls whether return-loss tests must reference a CSV
// asset even though only DTF tests read one. Defaults to true, matching the
// analyzer's own report viewer.
func WithRequireCSVForRL(require bool) Option {
	return func(e *Engine) {
		e.requireCSVForRL = require
	}
}

// WithLogger sets the logger for per-test debug output and warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine returns an Engine that reads CSV assets relative to baseDir, the
// directory containing the report file.
func NewEngine(baseDir string, opts ...Option) *Engine {
	e := &Engine{
		markers:         DirMarkers(baseDir),
		duplicates:      DuplicateOverwrite,
		requireCSVForRL: true,
		log:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile normalizes the devices of b and merges the tests of its first
// report into one CableReport per tag. Any structural problem aborts the
// whole run; on error no report or warnings are returned.
func (e *Engine) Reconcile(b *bundle.Bundle) (*SweepReport, []Warning, error) {
	var warnings []Warning

	devices := make([]Device, 0, len(b.Devices.Device))
	for i, raw := range b.Devices.Device {
		d, ws, err := NormalizeDevice(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("device %d (%s): %w", i+1, raw.SerialNumber, err)
		}
		warnings = append(warnings, ws...)
		devices = append(devices, d)
	}

	if len(b.Reports.Report) == 0 {
		return nil, nil, newError(ErrNoReports, "", nil)
	}

	m := &merger{
		engine: e,
		states: newStateIndex(b.States.State),
		byTag:  make(map[string]int),
		seen:   make(map[sideKey]int),
	}
	for i, raw := range b.Reports.Report[0].Items.Test {
		if err := m.add(raw); err != nil {
			return nil, nil, fmt.Errorf("test %d (%s): %w", i+1, raw.ID, err)
		}
	}
	warnings = append(warnings, m.warnings...)

	for _, w := range warnings {
		e.log.Warn(w.Message, "subject", w.Subject, "expected", w.Expected, "observed", w.Observed)
	}
	e.log.Debug("reconciled bundle", "devices", len(devices), "cables", len(m.reports), "warnings", len(warnings))

	return &SweepReport{Devices: devices, Reports: m.reports}, warnings, nil
}

// ---------------------------------------------------------------------------
// Merge
// ---------------------------------------------------------------------------

type sideKey struct {
	tag  string
	kind TestType
}

// merger accumulates CableReports for a single Reconcile call.
type merger struct {
	engine   *Engine
	states   stateIndex
	reports  []CableReport
	byTag    map[string]int
	seen     map[sideKey]int
	warnings []Warning
}

func (m *merger) add(t bundle.Test) error {
	tag, err := singleTag(t)
	if err != nil {
		return err
	}
	kind, err := Classify(t.Results.TestResult.Unit)
	if err != nil {
		return err
	}
	raw, err := m.states.resolve(t.StateID)
	if err != nil {
		return err
	}

	var asset string
	if kind == DTF || m.engine.requireCSVForRL {
		if asset, err = csvAsset(t); err != nil {
			return err
		}
	}

	result, err := ParseResult(t)
	if err != nil {
		return err
	}

	key := sideKey{tag: tag, kind: kind}
	m.seen[key]++
	if n := m.seen[key]; n > 1 {
		switch m.engine.duplicates {
		case DuplicateError:
			return newError(ErrDuplicateTest, tag, fmt.Errorf("%s test %d for this tag", kind, n))
		case DuplicateWarn:
			m.warnings = append(m.warnings, Warning{
				Message:  duplicateTestMessage,
				Subject:  tag + " " + kind.String(),
				Expected: "1",
				Observed: strconv.Itoa(n),
			})
		}
	}

	report := m.report(tag)
	switch kind {
	case DTF:
		state, err := ProjectDtfState(raw)
		if err != nil {
			return err
		}
		marker, err := m.engine.markers.Marker(asset)
		if err != nil {
			var se *Error
			if !errors.As(err, &se) {
				err = newError(ErrAssetRead, asset, err)
			}
			return err
		}
		report.DTF = &DtfSide{StateID: t.StateID, State: state, Result: result, Marker: marker}
	case ReturnLoss:
		state, err := ProjectRlState(raw)
		if err != nil {
			return err
		}
		report.RL = &RlSide{StateID: t.StateID, State: state, Result: result}
	}

	m.engine.log.Debug("merged test", "test", t.ID, "tag", tag, "type", kind, "state", t.StateID)
	return nil
}

// report returns the CableReport for tag, appending an empty one the first
// time tag is seen. The returned pointer is valid until the next call.
func (m *merger) report(tag string) *CableReport {
	i, ok := m.byTag[tag]
	if !ok {
		m.reports = append(m.reports, CableReport{Tag: tag})
		i = len(m.reports) - 1
		m.byTag[tag] = i
	}
	return &m.reports[i]
}

func singleTag(t bundle.Test) (string, error) {
	tags := t.TagValues()
	switch len(tags) {
	case 0:
		return "", newError(ErrNoTagsOnTest, t.ID, nil)
	case 1:
		return tags[0], nil
	}
	return "", newError(ErrMultipleTagsOnTest, strings.Join(tags, ", "), nil)
}

// csvAsset returns the test's CSV asset. When several are listed the last
// one wins, as in the analyzer's viewer.
func csvAsset(t bundle.Test) (string, error) {
	var found string
	for _, a := range t.Assets.Asset {
		if strings.HasSuffix(a, ".csv") {
			found = a
		}
	}
	if found == "" {
		return "", newError(ErrMissingCsvAsset, t.ID, nil)
	}
	return found, nil
}
