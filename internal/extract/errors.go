package extract

import "fmt"

// Kind classifies why provider text could not be turned into a result.
type Kind int

const (
	KindNoJSONObject Kind = iota + 1
	KindMalformedJSON
	KindMissingField
)

// Code is the stable identifier used in logs, metrics and audit entries.
func (k Kind) Code() string {
	switch k {
	case KindNoJSONObject:
		return "NO_JSON_OBJECT_FOUND"
	case KindMalformedJSON:
		return "MALFORMED_JSON"
	case KindMissingField:
		return "MISSING_REQUIRED_FIELD"
	default:
		return "UNKNOWN"
	}
}

func (k Kind) String() string { return k.Code() }

// Error is the single failure type returned by Extract.
type Error struct {
	Kind Kind
	// Field is set for KindMissingField.
	Field string
	// Fragment is the offending slice for KindMalformedJSON.
	Fragment string
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNoJSONObject:
		return "no json object found"
	case KindMalformedJSON:
		if e.Err != nil {
			return fmt.Sprintf("malformed json: %v", e.Err)
		}
		return "malformed json"
	case KindMissingField:
		return fmt.Sprintf("missing required field: %s", e.Field)
	default:
		return "extraction failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind, and on Field when the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// Sentinels for errors.Is.
var (
	ErrNoJSONObjectFound    = &Error{Kind: KindNoJSONObject}
	ErrMalformedJSON        = &Error{Kind: KindMalformedJSON}
	ErrMissingRequiredField = &Error{Kind: KindMissingField}
)

// MissingRequiredField builds the error (or an errors.Is target) for one field.
func MissingRequiredField(field string) *Error {
	return &Error{Kind: KindMissingField, Field: field}
}

func malformed(fragment string, err error) *Error {
	return &Error{Kind: KindMalformedJSON, Fragment: fragment, Err: err}
}
