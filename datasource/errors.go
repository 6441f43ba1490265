package datasource

import (
	"errors"
	"fmt"
)

// NetworkError reports a transport level failure: connection refused, timeout,
// cancelled context.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("network error (%s): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("network error (%s %s): %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response from an upstream API
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// ParseError reports a malformed body or a missing required field.
// Field is "body" when the payload could not be decoded at all.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse error: missing field %q", e.Field)
	}
	return fmt.Sprintf("parse error (%s): %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Error kinds reported by ErrorKind
const (
	KindNetwork = "network"
	KindHTTP    = "http"
	KindParse   = "parse"
	KindUnknown = "unknown"
)

// ErrorKind classifies err into one of the Kind* constants
func ErrorKind(err error) string {
	var netErr *NetworkError
	var httpErr *HTTPError
	var parseErr *ParseError
	switch {
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &parseErr):
		return KindParse
	default:
		return KindUnknown
	}
}

func missingField(field string) *ParseError {
	return &ParseError{Field: field}
}
