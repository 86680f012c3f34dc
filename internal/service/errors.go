package service

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable is wrapped by searches that could not read the spatial index.
var ErrStoreUnavailable = errors.New("spatial store unavailable")

// Reason is the machine readable cause of a failed search.
type Reason string

const (
	// ReasonInvalidQuery marks a query with a bad center or radius.
	ReasonInvalidQuery Reason = "INVALID_QUERY"
	// ReasonStoreUnavailable marks a search that could not read indexed sitters.
	ReasonStoreUnavailable Reason = "STORE_UNAVAILABLE"
)

// SearchError is returned by Engine.Search.
type SearchError struct {
	Reason Reason
	Err    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("proximity search failed (%s): %v", e.Reason, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the reason of a search failure, empty when err is not a SearchError.
func ReasonOf(err error) Reason {
	var searchErr *SearchError
	if errors.As(err, &searchErr) {
		return searchErr.Reason
	}

	return ""
}
