package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
)

// Error types for command execution
var (
	// ErrCommandNotFound indicates the command was not found in PATH
	ErrCommandNotFound = errors.New("command not found")

	// ErrPermissionDenied indicates the command cannot be executed due to permissions
	ErrPermissionDenied = errors.New("permission denied")

	// ErrTimeout indicates the command timed out
	ErrTimeout = errors.New("command timed out")

	// ErrInvalidWorkingDirectory indicates the working directory is invalid
	ErrInvalidWorkingDirectory = errors.New("invalid working directory")
)

// ErrorType represents the type of execution error
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeCommandNotFound
	ErrorTypePermissionDenied
	ErrorTypeTimeout
	ErrorTypeWorkingDirectory
	ErrorTypeExecution
)

// String returns a short name for the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeCommandNotFound:
		return "command-not-found"
	case ErrorTypePermissionDenied:
		return "permission-denied"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeWorkingDirectory:
		return "working-directory"
	case ErrorTypeExecution:
		return "execution"
	default:
		return "unknown"
	}
}

// ExecError represents a detailed execution error
type ExecError struct {
	Type    ErrorType
	Command string
	Args    []string
	Err     error
	Details string
}

// Error implements the error interface
func (e *ExecError) Error() string {
	cmd := e.Command
	if len(e.Args) > 0 {
		cmd = fmt.Sprintf("%s %s", e.Command, strings.Join(e.Args, " "))
	}

	switch e.Type {
	case ErrorTypeCommandNotFound:
		return fmt.Sprintf("command not found: %s", e.Command)
	case ErrorTypePermissionDenied:
		return fmt.Sprintf("permission denied: %s", cmd)
	case ErrorTypeTimeout:
		return fmt.Sprintf("command timed out: %s", cmd)
	case ErrorTypeWorkingDirectory:
		return fmt.Sprintf("working directory error: %s", e.Details)
	case ErrorTypeExecution:
		return fmt.Sprintf("execution error for %s: %v", cmd, e.Err)
	default:
		return fmt.Sprintf("unknown error for %s: %v", cmd, e.Err)
	}
}

// Unwrap returns the underlying error
func (e *ExecError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ExecError) Is(target error) bool {
	switch target {
	case ErrCommandNotFound:
		return e.Type == ErrorTypeCommandNotFound
	case ErrPermissionDenied:
		return e.Type == ErrorTypePermissionDenied
	case ErrTimeout:
		return e.Type == ErrorTypeTimeout
	case ErrInvalidWorkingDirectory:
		return e.Type == ErrorTypeWorkingDirectory
	}
	return false
}

// ClassifyError types an error returned while starting the analyzer
func ClassifyError(err error, command string, args []string) *ExecError {
	if err == nil {
		return nil
	}

	execErr := &ExecError{
		Type:    ErrorTypeExecution,
		Command: command,
		Args:    args,
		Err:     err,
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		execErr.Type = ErrorTypeTimeout
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		// exec.ErrNotFound for a PATH lookup, ENOENT for an explicit launcher path
		execErr.Type = ErrorTypeCommandNotFound
	case errors.Is(err, fs.ErrPermission):
		execErr.Type = ErrorTypePermissionDenied
	}
	return execErr
}

// HandleTimeoutCleanup kills a timed out process and reaps it
func HandleTimeoutCleanup(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill timed out process: %w", err)
	}

	_, _ = cmd.Process.Wait() //nolint:errcheck // reap, the process may already be gone
	return nil
}
