package onfi

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package wraps exactly one.
var (
	// ErrIO covers failed raw reads, missing valid copies and malformed
	// extended page sections.
	ErrIO = errors.New("I/O error")

	// ErrNotAvailable means the device flagged its own revision field invalid.
	ErrNotAvailable = errors.New("not available")

	// ErrNotSupported means the part decodes but cannot be driven: unknown
	// revision, a field too wide for the descriptor, or inconsistent ECC
	// and extended page information.
	ErrNotSupported = errors.New("not supported")

	// ErrNullPointer means a required collaborator was nil.
	ErrNullPointer = errors.New("null pointer")

	// ErrAlloc means the allocator could not supply a descriptor.
	ErrAlloc = errors.New("allocation failed")
)

// Stage identifies which part of discovery failed.
type Stage int

// Discovery stages in execution order.
const (
	StageAttach Stage = iota
	StageParamRead
	StageParamParse
	StageExtRead
	StageExtParse
)

var stageNames = map[Stage]string{
	StageAttach:     "attach",
	StageParamRead:  "parameter page read",
	StageParamParse: "parameter page parse",
	StageExtRead:    "extended page read",
	StageExtParse:   "extended page parse",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ParseError describes a discovery failure.
type ParseError struct {
	Stage Stage
	// Offset is the byte offset the failure refers to, or -1.
	Offset int
	Msg    string
	// Err is one of the package error classes.
	Err error
	// Cause is the underlying error from a collaborator, if any.
	Cause error
}

func (e *ParseError) Error() string {
	s := fmt.Sprintf("onfi: %s", e.Stage)
	if e.Offset >= 0 {
		s += fmt.Sprintf(" at %#x", e.Offset)
	}
	s += fmt.Sprintf(": %s: %v", e.Msg, e.Err)
	if e.Cause != nil {
		s += fmt.Sprintf(" (%v)", e.Cause)
	}
	return s
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newError(stage Stage, offset int, class error, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Stage:  stage,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
		Err:    class,
	}
}

// IsParseError returns true if err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
