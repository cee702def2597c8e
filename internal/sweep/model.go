// Package sweep reconciles a decoded analyzer bundle into one record per
// cable, joining distance-to-fault and return-loss measurements by tag.
package sweep

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Output aggregate
// ---------------------------------------------------------------------------

// SweepReport is the reconciled bundle. Reports are in the order their tags
// first appear in the bundle's test list.
type SweepReport struct {
	Devices []Device      `yaml:"devices"`
	Reports []CableReport `yaml:"reports"`
}

// Warning is a non-fatal anomaly found while reconciling.
type Warning struct {
	Message  string `yaml:"message"`
	Subject  string `yaml:"subject,omitempty"`
	Expected string `yaml:"expected"`
	Observed string `yaml:"observed"`
}

func (w Warning) String() string {
	s := w.Message
	if w.Subject != "" {
		s += " (" + w.Subject + ")"
	}
	return fmt.Sprintf("%s: expected %s, got %s", s, w.Expected, w.Observed)
}

// Device identifies the instrument that produced the bundle.
type Device struct {
	SerialNumber    string    `yaml:"serial_number"`
	Model           string    `yaml:"model"`
	ID              string    `yaml:"id"`
	SWVersion       string    `yaml:"sw_version"`
	CalibrationDate time.Time `yaml:"calibration_date"`
	Signature       string    `yaml:"signature"`
}

// ---------------------------------------------------------------------------
// Calibration states
// ---------------------------------------------------------------------------

// CalibrationLimit is a pass/fail threshold. Values are kept verbatim.
type CalibrationLimit struct {
	Type            string `yaml:"type"`
	MeasurementType string `yaml:"measurement_type"`
	Unit            string `yaml:"unit"`
	Name            string `yaml:"name"`
	Reference       string `yaml:"reference"`
}

// DtfState holds the sweep parameters of a distance-to-fault measurement.
type DtfState struct {
	ID            string           `yaml:"id"`
	TestType      string           `yaml:"test_type"`
	RxKHz         [2]uint64        `yaml:"rx_khz,flow"` // low, high
	Points        uint64           `yaml:"points"`
	LimitDistance uint64           `yaml:"limit_distance_m"`
	CableLoss     float64          `yaml:"cable_loss_db_per_m"`
	Limit         CalibrationLimit `yaml:"limit"`
}

// RlState holds the sweep parameters of a return-loss measurement.
type RlState struct {
	ID       string           `yaml:"id"`
	TestType string           `yaml:"test_type"`
	Points   uint64           `yaml:"points"`
	Limit    CalibrationLimit `yaml:"limit"`
}

// ---------------------------------------------------------------------------
// Measurements
// ---------------------------------------------------------------------------

// TestType is the measurement family of a test.
type TestType int

const (
	DTF TestType = iota + 1
	ReturnLoss
)

func (t TestType) String() string {
	switch t {
	case DTF:
		return "DTF"
	case ReturnLoss:
		return "RL"
	default:
		return fmt.Sprintf("TestType(%d)", int(t))
	}
}

// Point is a (position, value) pair from a sweep, e.g. the distance and VSWR
// of the worst DTF reading.
type Point struct {
	Position float64 `yaml:"position"`
	Value    float64 `yaml:"value"`
}

// Clock is a time of day, stored as the offset from midnight.
type Clock time.Duration

func (c Clock) String() string {
	d := time.Duration(c)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (c Clock) MarshalYAML() (any, error) { return c.String(), nil }

// TestResult is one parsed measurement outcome. Calibrated and Time are nil
// when the bundle leaves them empty.
type TestResult struct {
	MeasurementType string     `yaml:"measurement_type"`
	Unit            string     `yaml:"unit"`
	P1              uint32     `yaml:"p1"`
	P2              uint32     `yaml:"p2"`
	Max             Point      `yaml:"max"`
	Min             Point      `yaml:"min"`
	Average         float64    `yaml:"average"`
	Ripple          float64    `yaml:"ripple"`
	Pass            bool       `yaml:"pass"`
	Calibrated      *Clock     `yaml:"calibrated,omitempty"`
	Time            *time.Time `yaml:"time,omitempty"`
}

// ---------------------------------------------------------------------------
// Per-cable record
// ---------------------------------------------------------------------------

// DtfSide is the distance-to-fault half of a CableReport.
type DtfSide struct {
	StateID string     `yaml:"state_id"`
	State   DtfState   `yaml:"state"`
	Result  TestResult `yaml:"result"`
	Marker  float64    `yaml:"marker"`
}

// RlSide is the return-loss half of a CableReport.
type RlSide struct {
	StateID string     `yaml:"state_id"`
	State   RlState    `yaml:"state"`
	Result  TestResult `yaml:"result"`
}

// CableReport merges the measurements taken on one tagged cable. At least one
// side is always set.
type CableReport struct {
	Tag string   `yaml:"tag"`
	DTF *DtfSide `yaml:"dtf,omitempty"`
	RL  *RlSide  `yaml:"rl,omitempty"`
}

// Finished returns the latest measurement time across both sides.
func (r CableReport) Finished() (time.Time, bool) {
	var latest time.Time
	var ok bool
	for _, t := range []*time.Time{r.dtfTime(), r.rlTime()} {
		if t != nil && (!ok || t.After(latest)) {
			latest, ok = *t, true
		}
	}
	return latest, ok
}

func (r CableReport) dtfTime() *time.Time {
	if r.DTF == nil {
		return nil
	}
	return r.DTF.Result.Time
}

func (r CableReport) rlTime() *time.Time {
	if r.RL == nil {
		return nil
	}
	return r.RL.Result.Time
}
