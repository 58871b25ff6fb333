package executor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidMethod      = errors.New("invalid HTTP method")
	ErrInvalidHeaderName  = errors.New("invalid header name")
	ErrInvalidHeaderValue = errors.New("invalid header value")
)

// FieldError reports which recipe field failed to build
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("failed to build %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure raised while executing a request
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("error executing HTTP request: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrorChain returns one line per error in err's unwrap chain, outermost
// first, with each cause's text removed from the line above it.
func ErrorChain(err error) []string {
	var lines []string
	for err != nil {
		msg := err.Error()
		next := errors.Unwrap(err)
		if next != nil {
			msg = strings.TrimSuffix(msg, ": "+next.Error())
		}
		lines = append(lines, msg)
		err = next
	}
	return lines
}

// FormatErrorChain renders err with each nested cause indented one level
// deeper than the one before
func FormatErrorChain(err error) string {
	var sb strings.Builder
	for i, line := range ErrorChain(err) {
		if i > 0 {
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat("  ", i))
		}
		sb.WriteString(line)
	}
	return sb.String()
}
