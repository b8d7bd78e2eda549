package interactions

import "fmt"

// MissingFieldError is returned when a required ingest field is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// InvalidTypeError is returned when the type field is outside the accepted set.
type InvalidTypeError struct {
	Type string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("invalid interaction type: %q", e.Type)
}

// RateLimitedError is returned when a source IP exceeds the sliding window
// threshold.
type RateLimitedError struct {
	SourceIP string
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many requests from %s, try again later", e.SourceIP)
}
