package sweep

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cablesweep/internal/bundle"
)

// testTimeLayout is the analyzer's measurement timestamp format. It carries
// no zone; values are read as UTC.
const testTimeLayout = "2006-01-02 15:04"

// ParseResult builds a TestResult from the raw result block and timing
// fields of t.
func ParseResult(t bundle.Test) (TestResult, error) {
	raw := t.Results.TestResult
	var (
		res = TestResult{MeasurementType: raw.MeasurementType, Unit: raw.Unit}
		err error
	)

	if res.P1, err = parsePort("P1", raw.P1); err != nil {
		return TestResult{}, err
	}
	if res.P2, err = parsePort("P2", raw.P2); err != nil {
		return TestResult{}, err
	}
	if res.Max, err = parsePoint("Maximum", raw.Maximum); err != nil {
		return TestResult{}, err
	}
	if res.Min, err = parsePoint("Minimum", raw.Minimum); err != nil {
		return TestResult{}, err
	}
	if res.Average, err = parseFloat("Average", raw.Average); err != nil {
		return TestResult{}, err
	}
	if res.Ripple, err = parseFloat("Ripple", raw.Ripple); err != nil {
		return TestResult{}, err
	}
	if res.Pass, err = strconv.ParseBool(strings.TrimSpace(raw.Pass)); err != nil {
		return TestResult{}, newError(ErrResultParse, "Pass", err)
	}

	if s := strings.TrimSpace(t.Calibrated); s != "" {
		c, err := parseClock(s)
		if err != nil {
			return TestResult{}, newError(ErrResultParse, "Calibrated", err)
		}
		res.Calibrated = &c
	}
	if s := strings.TrimSpace(t.Time); s != "" {
		ts, err := time.Parse(testTimeLayout, s)
		if err != nil {
			return TestResult{}, newError(ErrResultParse, "Time", err)
		}
		res.Time = &ts
	}
	return res, nil
}

func parsePort(field, text string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(text), 10, 32)
	if err != nil {
		return 0, newError(ErrResultParse, field, err)
	}
	return uint32(n), nil
}

func parseFloat(field, text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, newError(ErrResultParse, field, err)
	}
	return v, nil
}

// parsePoint splits "position:value". A third colon-separated piece is
// rejected rather than ignored.
func parsePoint(field, text string) (Point, error) {
	pos, val, ok := strings.Cut(text, ":")
	if !ok {
		return Point{}, newError(ErrResultParse, field, fmt.Errorf("%q: want position:value", text))
	}
	p, err := parseFloat(field, pos)
	if err != nil {
		return Point{}, err
	}
	v, err := parseFloat(field, val)
	if err != nil {
		return Point{}, err
	}
	return Point{Position: p, Value: v}, nil
}

// parseClock accepts "15:04:05" with optional fractional seconds, or "15:04".
func parseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		var err2 error
		if t, err2 = time.Parse("15:04", s); err2 != nil {
			return 0, err
		}
	}
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Clock(t.Sub(midnight)), nil
}
