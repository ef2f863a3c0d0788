package model

import (
	"fmt"
	"strings"
)

// InvalidOrderError reports a bar sequence that is not strictly ascending by
// date. Position is the index of the offending bar.
type InvalidOrderError struct {
	Position int
	Prev     Day
	Curr     Day
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("price bars out of order at position %d: %s is not after %s",
		e.Position, e.Curr, e.Prev)
}

// SkippedSignal records one signal excluded from resolution because its
// timestamp could not be parsed.
type SkippedSignal struct {
	ID      string
	RawDate string
	Err     error
}

// MalformedSignalError reports signals whose dates could not be parsed.
// It is recoverable: the remaining signals are still resolved and the error
// only enumerates what was skipped.
type MalformedSignalError struct {
	Skipped []SkippedSignal
}

func (e *MalformedSignalError) Error() string {
	ids := make([]string, len(e.Skipped))
	for i, s := range e.Skipped {
		ids[i] = s.ID
	}
	return fmt.Sprintf("%d signal(s) with malformed dates skipped: %s",
		len(e.Skipped), strings.Join(ids, ", "))
}

// FetchError represents a failed request to the external data source, either
// a transport failure or a non-2xx response.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("fetch %s failed: data source returned status %d", e.Endpoint, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
