package render

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"cablesweep/internal/sweep"
)

// document is the serialized form of a View.
type document struct {
	Devices  []sweep.Device      `yaml:"devices"`
	Reports  []sweep.CableReport `yaml:"reports"`
	Warnings []sweep.Warning     `yaml:"warnings,omitempty"`
}

func newDocument(v View) document {
	d := document{Reports: v.Cables(), Warnings: v.Warnings}
	if v.Report != nil {
		d.Devices = v.Report.Devices
	}
	return d
}

// YAML writes the full reconciled report, unrounded.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Render(w io.Writer, v View) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(v)); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
