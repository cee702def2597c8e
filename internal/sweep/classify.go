package sweep

// Classify maps a result unit to its measurement family. The mapping is
// closed: a unit the analyzer has not been seen to emit is an error.
func Classify(unit string) (TestType, error) {
	switch unit {
	case "VSWR":
		return DTF, nil
	case "dB":
		return ReturnLoss, nil
	}
	return 0, newError(ErrUnknownTestUnit, unit, nil)
}
