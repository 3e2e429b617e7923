package model

import "fmt"

// FeedDataError reports an empty, malformed, non-contiguous or incomplete
// price series.
type FeedDataError struct {
	Reason string
	// Index is the offending position in the input, or -1 when not applicable.
	Index int
}

func (e *FeedDataError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("feed data: %s (index %d)", e.Reason, e.Index)
	}
	return fmt.Sprintf("feed data: %s", e.Reason)
}

// InsufficientDataError is returned when the requested charge duration does
// not fit in the available series.
type InsufficientDataError struct {
	Requested int // minutes
	Available int // minutes
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: requested %d minutes, series holds %d", e.Requested, e.Available)
}

// ChecksumMismatchError is returned when a RAPI response checksum does not
// match the value it frames.
type ChecksumMismatchError struct {
	Value    string
	Expected string
	Received string
}

func (e *ChecksumMismatchError) Error() string {
	if e.Received == "" {
		return fmt.Sprintf("checksum mismatch for %q: expected %s, response carried none", e.Value, e.Expected)
	}
	return fmt.Sprintf("checksum mismatch for %q: expected %s, got %s", e.Value, e.Expected, e.Received)
}

// TransportError wraps a failure of the underlying HTTP exchange.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport %s: %v", e.Op, e.Err) }

func (e *TransportError) Unwrap() error { return e.Err }
