package overlap

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrDuplicatePaperID indicates two input papers share an id.
	ErrDuplicatePaperID = errors.New("duplicate paper id")

	// ErrUnknownQuery indicates a paper references a query that is not configured.
	ErrUnknownQuery = errors.New("unknown query reference")

	// ErrUnknownPaper indicates an aggregate references a paper not in the input.
	ErrUnknownPaper = errors.New("unknown paper reference")

	// ErrMissingField indicates a required input field is empty.
	ErrMissingField = errors.New("missing required field")
)

// PaperRef identifies an input record in error messages.
type PaperRef struct {
	Index int    // Position in the input slice
	ID    string // Paper id
	Query string // Source query
	Title string
}

func (r PaperRef) String() string {
	return fmt.Sprintf("#%d (query %q, title %q)", r.Index, r.Query, r.Title)
}

// DuplicatePaperIDError reports two records sharing one id.
type DuplicatePaperIDError struct {
	ID     string
	First  PaperRef
	Second PaperRef
}

// Error implements the error interface.
func (e *DuplicatePaperIDError) Error() string {
	return fmt.Sprintf("duplicate paper id %q: records %s and %s", e.ID, e.First, e.Second)
}

// Unwrap returns the sentinel for errors.Is.
func (e *DuplicatePaperIDError) Unwrap() error {
	return ErrDuplicatePaperID
}

// UnknownQueryError reports a paper whose source query is not configured.
type UnknownQueryError struct {
	PaperID string
	QueryID string
}

// Error implements the error interface.
func (e *UnknownQueryError) Error() string {
	return fmt.Sprintf("paper %q references unknown query %q", e.PaperID, e.QueryID)
}

// Unwrap returns the sentinel for errors.Is.
func (e *UnknownQueryError) Unwrap() error {
	return ErrUnknownQuery
}

// UnknownPaperError reports an aggregate listing a paper id not in the input.
type UnknownPaperError struct {
	Aggregate string
	PaperID   string
}

// Error implements the error interface.
func (e *UnknownPaperError) Error() string {
	return fmt.Sprintf("aggregate %q references unknown paper %q", e.Aggregate, e.PaperID)
}

// Unwrap returns the sentinel for errors.Is.
func (e *UnknownPaperError) Unwrap() error {
	return ErrUnknownPaper
}

// MissingFieldError reports an input record with an empty required field.
type MissingFieldError struct {
	Kind  string // "paper" or "aggregate"
	Index int
	Field string
}

// Error implements the error interface.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s #%d: missing required field %q", e.Kind, e.Index, e.Field)
}

// Unwrap returns the sentinel for errors.Is.
func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// IsDataError reports whether err is a data-integrity violation in the input,
// as opposed to a programming or environment failure.
func IsDataError(err error) bool {
	return errors.Is(err, ErrDuplicatePaperID) ||
		errors.Is(err, ErrUnknownQuery) ||
		errors.Is(err, ErrUnknownPaper) ||
		errors.Is(err, ErrMissingField)
}
