// Package resilience defines the typed failure kinds external-call errors
// carry through the pipeline, replacing classification by error-message
// substrings.
package resilience

import "errors"

// Kind classifies pipeline failures into the small closed set the HTTP and
// CLI boundaries map to user-facing messages. Leaf clients attach a Kind at
// the point of failure; everything in between just wraps.
type Kind int

const (
	// KindInternal is the default for unclassified failures.
	KindInternal Kind = iota
	// KindValidation marks malformed input, rejected before any external call.
	KindValidation
	// KindNotFound marks a location that resolved to zero geocode candidates.
	KindNotFound
	// KindInvalidCoordinates marks a geocode response with unusable lat/lon.
	KindInvalidCoordinates
	// KindDemographicUnavailable marks a zip the census source has no usable
	// figures for (common for PO-box zips; user-correctable).
	KindDemographicUnavailable
	// KindCompetitorQuery marks a spatial backend failure.
	KindCompetitorQuery
)

// String returns a stable label for metrics and logs.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidCoordinates:
		return "invalid_coordinates"
	case KindDemographicUnavailable:
		return "demographic_unavailable"
	case KindCompetitorQuery:
		return "competitor_query"
	default:
		return "internal"
	}
}

// Error carries a Kind alongside the underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a Kind. Returns nil if err is nil.
func NewError(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the Kind of the first *Error in the chain, or KindInternal
// if none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
