package sweep

import (
	"strconv"
	"time"

	"cablesweep/internal/bundle"
)

const detailsCountMessage = "Unexpected details count"

// NormalizeDevice converts a raw device entry. A device must carry at least
// one details record; extra records are reported as a warning and ignored.
func NormalizeDevice(raw bundle.Device) (Device, []Warning, error) {
	details := raw.Details.DeviceDetails
	if len(details) == 0 {
		return Device{}, nil, newError(ErrMissingDeviceDetails, raw.SerialNumber, nil)
	}

	var warnings []Warning
	if len(details) != 1 {
		warnings = append(warnings, Warning{
			Message:  detailsCountMessage,
			Subject:  raw.SerialNumber,
			Expected: "1",
			Observed: strconv.Itoa(len(details)),
		})
	}

	d := details[0]
	cal, err := time.Parse(time.RFC3339, d.CalDate)
	if err != nil {
		return Device{}, nil, newError(ErrTimestampParse, d.CalDate, err)
	}

	return Device{
		SerialNumber:    raw.SerialNumber,
		Model:           raw.Model,
		ID:              d.ID,
		SWVersion:       d.SWVersions,
		CalibrationDate: cal,
		Signature:       d.Signature,
	}, warnings, nil
}
