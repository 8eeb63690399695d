// Package executor runs external analyzer processes for pmdgate.
//
// Every call owns its own output buffers, so concurrent executions never
// share stream state with each other or with the calling process.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/bebsworthy/pmdgate/internal/debug"
)

// DefaultTimeout applies when neither the executor nor the call sets one
const DefaultTimeout = 10 * time.Minute

// waitDelay bounds how long Wait blocks on output pipes held open by
// grandchildren (the JVM launcher scripts fork) after the process exits.
const waitDelay = 5 * time.Second

// ExecOptions defines options for command execution
type ExecOptions struct {
	// Working directory for the command
	WorkingDir string
	// Environment variables (in KEY=VALUE format)
	Environment []string
	// Timeout for command execution
	Timeout time.Duration
	// Whether to inherit parent process environment
	InheritEnv bool
}

// ExecResult contains the result of command execution
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
	// Error is set when the command could not be started or waited on
	Error error
}

// CommandExecutor executes external commands
type CommandExecutor struct {
	defaultTimeout time.Duration
}

// NewCommandExecutor creates a new command executor
func NewCommandExecutor(defaultTimeout time.Duration) *CommandExecutor {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	return &CommandExecutor{
		defaultTimeout: defaultTimeout,
	}
}

// Execute runs a command and buffers its output
func (e *CommandExecutor) Execute(ctx context.Context, command string, args []string, options ExecOptions) (*ExecResult, error) {
	return e.ExecuteWithStreaming(ctx, command, args, options, nil, nil)
}

// ExecuteWithStreaming runs a command and copies output to the provided
// writers in addition to the buffers in the returned result.
func (e *CommandExecutor) ExecuteWithStreaming(ctx context.Context, command string, args []string, options ExecOptions, stdoutWriter, stderrWriter io.Writer) (*ExecResult, error) {
	if command == "" {
		return nil, fmt.Errorf("command cannot be empty")
	}

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.WaitDelay = waitDelay

	if options.WorkingDir != "" {
		absPath, err := filepath.Abs(options.WorkingDir)
		if err == nil {
			_, err = os.Stat(absPath)
		}
		if err != nil {
			return nil, &ExecError{
				Type:    ErrorTypeWorkingDirectory,
				Command: command,
				Args:    args,
				Err:     err,
				Details: fmt.Sprintf("%s is not usable", options.WorkingDir),
			}
		}
		cmd.Dir = absPath
	}

	if env := e.prepareEnvironment(options); len(env) > 0 {
		cmd.Env = env
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = teeTo(&stdoutBuf, stdoutWriter)
	cmd.Stderr = teeTo(&stderrBuf, stderrWriter)

	debug.LogCommand(command, args, cmd.Dir)
	start := time.Now()

	if err := cmd.Start(); err != nil {
		return &ExecResult{
			ExitCode: -1,
			Error:    ClassifyError(err, command, args),
		}, nil
	}

	waitErr := cmd.Wait()
	duration := time.Since(start)
	debug.LogTiming("command execution", duration)

	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
	if timedOut {
		_ = HandleTimeoutCleanup(cmd) //nolint:errcheck // best effort
	}

	result := &ExecResult{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		TimedOut: timedOut,
		Duration: duration,
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			result.Error = waitErr
		}
	}

	debug.Log("Exit code: %d (timed out: %v)", result.ExitCode, result.TimedOut)
	return result, nil
}

func teeTo(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(w, buf)
}

// prepareEnvironment merges the parent environment (if requested) with the
// configured overrides. Later entries win.
func (e *CommandExecutor) prepareEnvironment(options ExecOptions) []string {
	var env []string
	if options.InheritEnv {
		env = os.Environ()
	}

	envMap := make(map[string]string)
	order := make([]string, 0, len(env)+len(options.Environment))
	for _, source := range [][]string{env, options.Environment} {
		for _, kv := range source {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				continue
			}
			if _, seen := envMap[parts[0]]; !seen {
				order = append(order, parts[0])
			}
			envMap[parts[0]] = parts[1]
		}
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}
