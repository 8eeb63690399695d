package gate

import (
	"errors"
	"fmt"
)

// Sentinels for each failure kind, for use with errors.Is
var (
	// ErrResourceNotFound indicates the target folder or rule set is missing
	ErrResourceNotFound = errors.New("resource not found")

	// ErrFindingsPresent indicates the analyzer reported findings
	ErrFindingsPresent = errors.New("findings present")

	// ErrAnalyzerStderr indicates the analyzer wrote to its error channel
	ErrAnalyzerStderr = errors.New("analyzer wrote to its error channel")

	// ErrTimeout indicates the analyzer did not finish in time
	ErrTimeout = errors.New("analyzer timed out")

	// ErrAnalyzerFailed indicates the analyzer could not run to completion
	ErrAnalyzerFailed = errors.New("analyzer failed")
)

// Kind classifies a gate failure
type Kind int

const (
	KindResourceNotFound Kind = iota + 1
	KindFindingsPresent
	KindAnalyzerStderr
	KindTimeout
	KindAnalyzerFailed
)

// String returns a short name for the kind
func (k Kind) String() string {
	switch k {
	case KindResourceNotFound:
		return "resource-not-found"
	case KindFindingsPresent:
		return "findings-present"
	case KindAnalyzerStderr:
		return "analyzer-stderr"
	case KindTimeout:
		return "timeout"
	case KindAnalyzerFailed:
		return "analyzer-failed"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindResourceNotFound:
		return ErrResourceNotFound
	case KindFindingsPresent:
		return ErrFindingsPresent
	case KindAnalyzerStderr:
		return ErrAnalyzerStderr
	case KindTimeout:
		return ErrTimeout
	case KindAnalyzerFailed:
		return ErrAnalyzerFailed
	default:
		return nil
	}
}

// Error is returned by Check for every failed gate run
type Error struct {
	Kind Kind
	// Message is the human-readable failure message. For findings it is the
	// count followed by one finding per line.
	Message string
	// Findings holds the filtered findings for KindFindingsPresent
	Findings []string
	// Stderr holds the raw error-channel text for KindAnalyzerStderr
	Stderr string
	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// IsInfrastructure reports whether err is a failure to run the gate at all,
// as opposed to the analyzer reporting problems with the code.
func IsInfrastructure(err error) bool {
	var gateErr *Error
	if !errors.As(err, &gateErr) {
		return err != nil
	}
	switch gateErr.Kind {
	case KindFindingsPresent, KindAnalyzerStderr:
		return false
	default:
		return true
	}
}
