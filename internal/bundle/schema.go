// Package bundle declares the raw record set exported by the analyzer
// (Report.xml) and decodes it. Field names follow the exporter's element
// names; every value is kept as text and interpreted by package sweep.
package bundle

// Bundle is the root of a decoded report file.
type Bundle struct {
	Version string  `xml:"Version"`
	Devices Devices `xml:"Devices"`
	States  States  `xml:"States"`
	Reports Reports `xml:"Reports"`
}

// ---------------------------------------------------------------------------
// Devices
// ---------------------------------------------------------------------------

type Devices struct {
	Device []Device `xml:"Device"`
}

// Device is one instrument that took part in the test session.
type Device struct {
	SerialNumber string  `xml:"SerialNumber"`
	Model        string  `xml:"Model"`
	Details      Details `xml:"Details"`
}

// Details normally holds exactly one DeviceDetails record.
type Details struct {
	DeviceDetails []DeviceDetails `xml:"DeviceDetails"`
}

type DeviceDetails struct {
	ID         string `xml:"ID"`
	SWVersions string `xml:"SWVersions"`
	CalDate    string `xml:"CalDate"` // RFC 3339
	Signature  string `xml:"Signature"`
}

// ---------------------------------------------------------------------------
// States
// ---------------------------------------------------------------------------

type States struct {
	State []State `xml:"State"`
}

// State is a calibration parameter set referenced by Test.StateID.
// The frequency band, distance, and cable loss fields are only present on
// distance-to-fault states.
type State struct {
	ID              string  `xml:"ID"`
	TestType        string  `xml:"TestType"`
	RxKHz           *string `xml:"Rx_kHz"` // "low:high"
	Points          string  `xml:"Points"`
	DistanceM       *string `xml:"Distance_m"`
	VF              *string `xml:"VF"`
	Window          *string `xml:"Window"`
	CableLossDBPerM *string `xml:"CableLoss_dB_per_m"`
	Limits          Limits  `xml:"Limits"`
}

type Limits struct {
	Limit []Limit `xml:"Limit"`
}

type Limit struct {
	Type            string  `xml:"Type"`
	MeasurementType string  `xml:"MeasurementType"`
	Unit            string  `xml:"Unit"`
	Name            string  `xml:"Name"`
	Range           *string `xml:"Range"`
	Reference       string  `xml:"Reference"`
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

type Reports struct {
	Report []Report `xml:"Report"`
}

type Report struct {
	ID                      string `xml:"ID"`
	PeakPimDBm              string `xml:"PeakPim_dBm"`
	PeakPimPowerSetPointDBm string `xml:"PeakPimPowerSetPoint_dBm"`
	TestPassed              string `xml:"TestPassed"`
	Items                   Items  `xml:"Items"`
}

type Items struct {
	Test []Test `xml:"Test"`
}

// Test is a single sweep measurement of one cable.
type Test struct {
	ID         string     `xml:"ID"`
	StateID    string     `xml:"StateID"`
	Time       string     `xml:"Time"`       // "2006-01-02 15:04"
	Calibrated string     `xml:"Calibrated"` // time of day
	Assets     Assets     `xml:"Assets"`
	Tags       []TagEntry `xml:"Tags"`
	Results    Results    `xml:"Results"`
}

// Assets lists files stored next to the report, relative to its directory.
type Assets struct {
	Asset []string `xml:"Asset"`
}

// TagEntry is one <Tags> element. Exporters have been seen writing either
// one element per tag or several <Tag> children in a single element.
type TagEntry struct {
	Tag []string `xml:"Tag"`
}

type Results struct {
	TestResult TestResult `xml:"TestResult"`
}

// TestResult holds the measurement summary. Maximum and Minimum are
// "position:value" pairs.
type TestResult struct {
	MeasurementType string `xml:"MeasurementType"`
	Unit            string `xml:"Unit"`
	P1              string `xml:"P1"`
	P2              string `xml:"P2"`
	Maximum         string `xml:"Maximum"`
	Minimum         string `xml:"Minimum"`
	Average         string `xml:"Average"`
	Ripple          string `xml:"Ripple"`
	Pass            string `xml:"Pass"`
}

// TagValues returns the tag labels of t in declared order.
func (t Test) TagValues() []string {
	var tags []string
	for _, e := range t.Tags {
		tags = append(tags, e.Tag...)
	}
	return tags
}
