package sweep

import "strconv"

// Kind classifies a reconciliation failure. Every error returned by this
// package matches exactly one Kind under errors.Is.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	ErrMissingDeviceDetails Kind = "missing device details"
	ErrTimestampParse       Kind = "timestamp parse"
	ErrUnresolvedState      Kind = "unresolved state"
	ErrMalformedState       Kind = "malformed state"
	ErrUnknownTestUnit      Kind = "unknown test unit"
	ErrNoTagsOnTest         Kind = "no tags on test"
	ErrMultipleTagsOnTest   Kind = "multiple tags on test"
	ErrMissingCsvAsset      Kind = "missing csv asset"
	ErrResultParse          Kind = "result parse"
	ErrAssetRead            Kind = "asset read"
	ErrMalformedAsset       Kind = "malformed asset"
	ErrMarkerParse          Kind = "marker parse"
	ErrNoReports            Kind = "no reports"
	ErrDuplicateTest        Kind = "duplicate test"
)

// Error is a reconciliation failure. Subject names the offending value: a
// state ID, a unit, an asset path, or a result field.
type Error struct {
	Kind    Kind
	Subject string
	Err     error
}

func newError(kind Kind, subject string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Subject != "" {
		msg += " " + strconv.Quote(e.Subject)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
