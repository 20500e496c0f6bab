package pipeline

import (
	"fmt"
	"strings"
)

type FailureKind string

const (
	FailureInvalidInput    FailureKind = "invalid_input"
	FailureConversionError FailureKind = "conversion_error"
	FailureRenderFailed    FailureKind = "render_failed"
	FailureUnknown         FailureKind = "unknown"
)

// Failure is the terminal error of one request. Message is safe to show to the
// chat; Err carries the detail and is only ever logged.
type Failure struct {
	Kind    FailureKind
	Reason  string
	Message string
	Err     error
}

func (f *Failure) Error() string {
	var b strings.Builder
	b.WriteString(string(f.Kind))
	if f.Reason != "" {
		b.WriteString(": ")
		b.WriteString(f.Reason)
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ConversionError is returned by converters when the source cannot be decoded
// or re-encoded.
type ConversionError struct {
	Format string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s image: %v", e.Format, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// UserMessage is the fixed text shown instead of the decoder error.
func (e *ConversionError) UserMessage() string {
	return fmt.Sprintf("Unable to convert %s image; try a different format", e.Format)
}
