package sweep

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cablesweep/internal/bundle"
)

// ResolveState returns the first state in states whose ID equals id.
func ResolveState(id string, states []bundle.State) (bundle.State, error) {
	for _, s := range states {
		if s.ID == id {
			return s, nil
		}
	}
	return bundle.State{}, newError(ErrUnresolvedState, id, nil)
}

// stateIndex resolves state IDs in constant time. Like ResolveState, the
// first state declared with a given ID wins.
type stateIndex struct {
	states []bundle.State
	byID   map[string]int
}

func newStateIndex(states []bundle.State) stateIndex {
	byID := make(map[string]int, len(states))
	for i, s := range states {
		if _, dup := byID[s.ID]; !dup {
			byID[s.ID] = i
		}
	}
	return stateIndex{states: states, byID: byID}
}

func (x stateIndex) resolve(id string) (bundle.State, error) {
	i, ok := x.byID[id]
	if !ok {
		return bundle.State{}, newError(ErrUnresolvedState, id, nil)
	}
	return x.states[i], nil
}

// ---------------------------------------------------------------------------
// Projections
// ---------------------------------------------------------------------------

// ProjectDtfState reads the distance-to-fault parameters of raw. The
// frequency band, distance, and cable loss fields are optional in the schema
// but required here.
func ProjectDtfState(raw bundle.State) (DtfState, error) {
	limit, err := firstLimit(raw)
	if err != nil {
		return DtfState{}, err
	}
	points, err := parseStateUint(raw.ID, "Points", raw.Points)
	if err != nil {
		return DtfState{}, err
	}

	band, err := requireField(raw.ID, "Rx_kHz", raw.RxKHz)
	if err != nil {
		return DtfState{}, err
	}
	lowText, highText, ok := strings.Cut(band, ":")
	if !ok {
		return DtfState{}, newError(ErrMalformedState, raw.ID, fmt.Errorf("Rx_kHz %q: want low:high", band))
	}
	low, err := parseStateUint(raw.ID, "Rx_kHz", lowText)
	if err != nil {
		return DtfState{}, err
	}
	high, err := parseStateUint(raw.ID, "Rx_kHz", highText)
	if err != nil {
		return DtfState{}, err
	}

	distText, err := requireField(raw.ID, "Distance_m", raw.DistanceM)
	if err != nil {
		return DtfState{}, err
	}
	distance, err := parseStateUint(raw.ID, "Distance_m", distText)
	if err != nil {
		return DtfState{}, err
	}

	lossText, err := requireField(raw.ID, "CableLoss_dB_per_m", raw.CableLossDBPerM)
	if err != nil {
		return DtfState{}, err
	}
	loss, err := strconv.ParseFloat(strings.TrimSpace(lossText), 64)
	if err != nil {
		return DtfState{}, newError(ErrMalformedState, raw.ID, fmt.Errorf("CableLoss_dB_per_m: %w", err))
	}

	return DtfState{
		ID:            raw.ID,
		TestType:      raw.TestType,
		RxKHz:         [2]uint64{low, high},
		Points:        points,
		LimitDistance: distance,
		CableLoss:     loss,
		Limit:         limit,
	}, nil
}

// ProjectRlState reads the return-loss parameters of raw.
func ProjectRlState(raw bundle.State) (RlState, error) {
	limit, err := firstLimit(raw)
	if err != nil {
		return RlState{}, err
	}
	points, err := parseStateUint(raw.ID, "Points", raw.Points)
	if err != nil {
		return RlState{}, err
	}
	return RlState{
		ID:       raw.ID,
		TestType: raw.TestType,
		Points:   points,
		Limit:    limit,
	}, nil
}

// firstLimit returns the state's first limit; the analyzer writes one per state.
func firstLimit(raw bundle.State) (CalibrationLimit, error) {
	if len(raw.Limits.Limit) == 0 {
		return CalibrationLimit{}, newError(ErrMalformedState, raw.ID, errors.New("no limits"))
	}
	l := raw.Limits.Limit[0]
	return CalibrationLimit{
		Type:            l.Type,
		MeasurementType: l.MeasurementType,
		Unit:            l.Unit,
		Name:            l.Name,
		Reference:       l.Reference,
	}, nil
}

func requireField(stateID, name string, v *string) (string, error) {
	if v == nil {
		return "", newError(ErrMalformedState, stateID, fmt.Errorf("missing %s", name))
	}
	return *v, nil
}

func parseStateUint(stateID, name, text string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, newError(ErrMalformedState, stateID, fmt.Errorf("%s: %w", name, err))
	}
	return n, nil
}
