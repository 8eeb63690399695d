package testutil

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// CaptureOutput captures what fn prints to os.Stdout and os.Stderr. The
// original handles are restored even if fn panics; the panic is then
// re-raised.
func CaptureOutput(fn func()) (stdout, stderr string, err error) {
	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return "", "", err
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdoutR.Close() //nolint:errcheck
		_ = stdoutW.Close() //nolint:errcheck
		return "", "", err
	}

	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&outBuf, stdoutR) //nolint:errcheck
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(&errBuf, stderrR) //nolint:errcheck
	}()

	os.Stdout = stdoutW
	os.Stderr = stderrW

	func() {
		defer func() {
			os.Stdout = oldStdout
			os.Stderr = oldStderr
			_ = stdoutW.Close() //nolint:errcheck
			_ = stderrW.Close() //nolint:errcheck
			wg.Wait()
			_ = stdoutR.Close() //nolint:errcheck
			_ = stderrR.Close() //nolint:errcheck
		}()
		fn()
	}()

	return outBuf.String(), errBuf.String(), nil
}

// CaptureStdout is a convenience function that captures only stdout.
func CaptureStdout(fn func()) (string, error) {
	stdout, _, err := CaptureOutput(fn)
	return stdout, err
}

// CaptureStderr is a convenience function that captures only stderr.
func CaptureStderr(fn func()) (string, error) {
	_, stderr, err := CaptureOutput(fn)
	return stderr, err
}

// TestWriter provides a simple io.Writer for tests.
type TestWriter struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

// NewTestWriter creates a new TestWriter.
func NewTestWriter() *TestWriter {
	return &TestWriter{}
}

// Write implements io.Writer.
func (tw *TestWriter) Write(p []byte) (n int, err error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.buf.Write(p)
}

// String returns the written content.
func (tw *TestWriter) String() string {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.buf.String()
}

// Reset clears the buffer.
func (tw *TestWriter) Reset() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.buf.Reset()
}
