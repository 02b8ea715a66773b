// Package errdefs defines the error kinds shared across the gateway:
// transport failures, malformed payloads, and missing cache entries.
package errdefs

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested item is absent from the cache.
var ErrNotFound = errors.New("not found")

// FetchError represents a network or transport failure against an origin service.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a FetchError for the given origin URL.
func NewFetchError(url string, err error) *FetchError {
	return &FetchError{URL: url, Err: err}
}

// IsFetchError reports whether err is a FetchError (even when wrapped).
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}

// ParseError represents a malformed payload or a missing required field.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a ParseError attributed to the given source.
func NewParseError(source string, err error) *ParseError {
	return &ParseError{Source: source, Err: err}
}

// IsParseError reports whether err is a ParseError (even when wrapped).
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
