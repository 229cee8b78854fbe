/*
errors.go - Centralized error types for the reporting engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The aggregation core itself never returns errors: malformed numbers
  degrade to zero. Errors exist for the edges around it: page numbers,
  page sizes, filter values, imported rows and export formats.

ERROR CATEGORIES:
  1. Pagination errors - Out-of-range or unparseable page input
  2. Validation errors - Filter values and imported records
  3. Surface errors    - Unknown report dimension or export format

USAGE:
  if errors.Is(err, generic.ErrPageOutOfRange) {
      // keep the current page, it is a no-op
  }

SEE ALSO:
  - page.go: Uses the pagination errors
  - commission/filter.go: Filter parsing
  - api/handlers.go: Maps these errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPage is returned when page-jump input is not an integer in range.
	ErrInvalidPage = errors.New("invalid page")

	// ErrPageOutOfRange is returned when a page outside [1, PageCount] is requested.
	ErrPageOutOfRange = errors.New("page out of range")

	// ErrInvalidPageSize is returned when a page size is not one of PageSizes.
	ErrInvalidPageSize = errors.New("invalid page size")

	// ErrInvalidFilter is returned when a status or date-range value is unknown.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidRecord is returned when an imported row cannot be decoded.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrUnknownDimension is returned for a report dimension that does not exist.
	ErrUnknownDimension = errors.New("unknown report dimension")

	// ErrUnsupportedFormat is returned for an export format that does not exist.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes one rejected input value.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error // sentinel this error unwraps to
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PageError reports a page request outside the available range.
type PageError struct {
	Page      int
	PageCount int
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d out of range [1, %d]", e.Page, e.PageCount)
}

func (e *PageError) Unwrap() error {
	return ErrPageOutOfRange
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPage) ||
		errors.Is(err, ErrPageOutOfRange) ||
		errors.Is(err, ErrInvalidPageSize) ||
		errors.Is(err, ErrInvalidFilter) ||
		errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrUnsupportedFormat)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownDimension)
}
