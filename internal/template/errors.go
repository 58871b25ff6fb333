package template

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a render failure
type Kind int

const (
	KindInvalidKey Kind = iota + 1
	KindFieldUnknown
	KindChainUnknown
	KindChainNoResponse
	KindChainJSONPath
	KindChainParseResponse
	KindChainIncorrectContentType
	KindChainInvalidResult
	KindEnvironmentVariable
	KindRepository
)

func (k Kind) String() string {
	switch k {
	case KindInvalidKey:
		return "InvalidKey"
	case KindFieldUnknown:
		return "FieldUnknown"
	case KindChainUnknown:
		return "ChainUnknown"
	case KindChainNoResponse:
		return "ChainNoResponse"
	case KindChainJSONPath:
		return "ChainJSONPath"
	case KindChainParseResponse:
		return "ChainParseResponse"
	case KindChainIncorrectContentType:
		return "ChainIncorrectContentType"
	case KindChainInvalidResult:
		return "ChainInvalidResult"
	case KindEnvironmentVariable:
		return "EnvironmentVariable"
	case KindRepository:
		return "Repository"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrEnvNotPresent is the cause when an environment variable is unset
	ErrEnvNotPresent = errors.New("environment variable not found")
	// ErrEnvNotUnicode is the cause when an environment variable is not valid UTF-8
	ErrEnvNotUnicode = errors.New("environment variable was not valid unicode")
)

// ExactlyOneError is the cause when a chain's path does not select a single node
type ExactlyOneError struct {
	Count int
}

func (e *ExactlyOneError) Error() string {
	return fmt.Sprintf("expected exactly one result, found %d", e.Count)
}

// Span is a byte range of the template covering one {{ }} placeholder
type Span struct {
	Start int
	End   int
}

// BorrowedError is a render failure whose strings are substrings of the
// template or the render context. It is only valid while those are alive and
// unchanged; convert it with IntoOwned before storing or sending it anywhere.
type BorrowedError struct {
	Kind Kind
	// Placeholder location in the template
	Span Span
	// Raw text between the braces
	Key string
	// Field name, chain id or variable name
	Ident string
	// JSONPath, for KindChainJSONPath
	Path string
	Err  error
}

func (e *BorrowedError) Error() string {
	return formatError(e.Kind, e.Key, e.Ident, e.Path, e.Err)
}

func (e *BorrowedError) Unwrap() error {
	return e.Err
}

// IntoOwned copies every string into fresh memory
func (e *BorrowedError) IntoOwned() *Error {
	return &Error{
		Kind:  e.Kind,
		Span:  e.Span,
		Key:   strings.Clone(e.Key),
		Ident: strings.Clone(e.Ident),
		Path:  strings.Clone(e.Path),
		Err:   e.Err,
	}
}

// Error is the owned form of BorrowedError, safe to keep after the render
// call returns
type Error struct {
	Kind  Kind
	Span  Span
	Key   string
	Ident string
	Path  string
	Err   error
}

func (e *Error) Error() string {
	return formatError(e.Kind, e.Key, e.Ident, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func formatError(kind Kind, key, ident, path string, cause error) string {
	var msg string
	switch kind {
	case KindInvalidKey:
		msg = fmt.Sprintf("failed to parse template key %q", key)
	case KindFieldUnknown:
		msg = fmt.Sprintf("unknown field %q", ident)
	case KindChainUnknown:
		msg = fmt.Sprintf("unknown chain %q", ident)
	case KindChainNoResponse:
		msg = fmt.Sprintf("no response available for chain %q", ident)
	case KindChainJSONPath:
		msg = fmt.Sprintf("error parsing JSON path %q for chain %q", path, ident)
	case KindChainParseResponse:
		msg = fmt.Sprintf("error parsing response for chain %q", ident)
	case KindChainIncorrectContentType:
		msg = fmt.Sprintf("response for chain %q had incorrect content type", ident)
	case KindChainInvalidResult:
		msg = fmt.Sprintf("expected exactly one result for chain %q", ident)
	case KindEnvironmentVariable:
		msg = fmt.Sprintf("error accessing environment variable %q", ident)
	case KindRepository:
		msg = fmt.Sprintf("failed to load history for chain %q", ident)
	default:
		msg = fmt.Sprintf("template error (%s)", kind)
	}
	if cause != nil {
		return msg + ": " + cause.Error()
	}
	return msg
}
