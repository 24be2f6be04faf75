package source

import (
	"errors"
	"fmt"
)

// ErrRowSkipped marks a row that lacks mandatory fields. The row is dropped
// and the rest of the page is still parsed.
var ErrRowSkipped = errors.New("row skipped")

// ErrStale marks a row outside the recency window or with an unparseable
// published date.
var ErrStale = errors.New("row outside recency window")

// NetworkError reports a failed or timed-out page fetch.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err carries a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
