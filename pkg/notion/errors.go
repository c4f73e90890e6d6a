package notion

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyToken              = errors.New("notion: token is required")
	ErrEmptyDatabaseID         = errors.New("notion: database id is required")
	ErrEmptyPageID             = errors.New("notion: page id is required")
	ErrInvalidPageSize         = errors.New("notion: page size must be positive")
	ErrRequestFailed           = errors.New("notion: request failed")
	ErrPaginationLimitExceeded = errors.New("notion: pagination limit exceeded")
	ErrMissingCursor           = errors.New("notion: query reported more results without a cursor")
)

// RequestError is returned when the API answers with a non-2xx status.
// Body holds the raw response text.
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("notion: %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}

// PaginationLimitError reports a query that still had more results after MaxPages pages.
type PaginationLimitError struct {
	MaxPages int
	Fetched  int
}

func (e *PaginationLimitError) Error() string {
	return fmt.Sprintf("notion: query still has more results after %d pages (%d records read)", e.MaxPages, e.Fetched)
}

func (e *PaginationLimitError) Is(target error) bool {
	return target == ErrPaginationLimitExceeded
}
