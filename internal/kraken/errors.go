package kraken

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRateLimited is returned when the upstream answers 429.
var ErrRateLimited = errors.New("rate limited (429)")

// APIError is a non-empty top-level error list in a Kraken response.
type APIError struct {
	Messages []string
}

func (e *APIError) Error() string {
	return "upstream error: " + strings.Join(e.Messages, "; ")
}

// FetchError reports that a REST call produced no usable result.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsUpstreamError reports whether err carries an upstream error list.
func IsUpstreamError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
