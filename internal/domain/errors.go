package domain

import (
	"errors"
	"fmt"
)

// Parse errors - per-line listing failures
var (
	// ErrMalformedLine indicates missing fields, a non-numeric count or size,
	// an unrecognized date, or an unknown type character
	ErrMalformedLine = errors.New("malformed line")

	// ErrMalformedMode indicates a mode string of the wrong length or alphabet
	ErrMalformedMode = errors.New("malformed mode")

	// ErrMalformedName indicates an invalid or truncated escape in a name
	ErrMalformedName = errors.New("malformed name")
)

// Source errors - listing capture failures
var (
	// ErrSourceNotFound indicates the listing file or host does not exist
	ErrSourceNotFound = errors.New("listing source not found")

	// ErrCommandFailed indicates the remote listing command exited non-zero
	ErrCommandFailed = errors.New("listing command failed")

	// ErrHostKeyMismatch indicates the remote host key could not be verified
	ErrHostKeyMismatch = errors.New("host key verification failed")
)

// Store errors - snapshot persistence failures
var (
	// ErrSnapshotNotFound indicates no snapshot matches the query
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Config errors - 設定檔錯誤
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")

	// ErrHostNotFound indicates a referenced host is not configured
	ErrHostNotFound = errors.New("host not found")
)

// ErrorKind classifies a LineError
type ErrorKind int

const (
	KindMalformedLine ErrorKind = iota
	KindMalformedMode
	KindMalformedName
)

// String returns the string representation of the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindMalformedLine:
		return "MalformedLine"
	case KindMalformedMode:
		return "MalformedMode"
	case KindMalformedName:
		return "MalformedName"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the kind by name
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// sentinel returns the package error matching the kind
func (k ErrorKind) sentinel() error {
	switch k {
	case KindMalformedMode:
		return ErrMalformedMode
	case KindMalformedName:
		return ErrMalformedName
	default:
		return ErrMalformedLine
	}
}

// KindOf maps a sentinel (or an error wrapping one) back to its kind
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrMalformedMode):
		return KindMalformedMode
	case errors.Is(err, ErrMalformedName):
		return KindMalformedName
	default:
		return KindMalformedLine
	}
}

// LineError reports one unparseable listing line
type LineError struct {
	// Line is 1-based and counts the summary line and empty lines
	Line int `json:"line" yaml:"line"`

	Kind ErrorKind `json:"kind" yaml:"kind"`

	// Raw is the offending line as it appeared in the input
	Raw string `json:"raw" yaml:"raw"`

	// Detail describes which field failed
	Detail string `json:"detail" yaml:"detail"`
}

// NewLineError builds a LineError from an error returned by a parsing stage
func NewLineError(line int, raw string, err error) *LineError {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &LineError{
		Line:   line,
		Kind:   KindOf(err),
		Raw:    raw,
		Detail: detail,
	}
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Detail, e.Raw)
}

// Unwrap allows errors.Is against ErrMalformedLine, ErrMalformedMode, ErrMalformedName
func (e *LineError) Unwrap() error {
	return e.Kind.sentinel()
}
