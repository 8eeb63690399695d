package testutil

import (
	"fmt"
	"strings"
	"sync"
)

// RecordingT implements require.TestingT without stopping the test, so
// tests can check what an assertion helper reported.
type RecordingT struct {
	mu       sync.Mutex
	errors   []string
	failNows int
}

// Errorf records a failure message
func (r *RecordingT) Errorf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

// FailNow records that the helper asked to stop the test
func (r *RecordingT) FailNow() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNows++
}

// Helper is a no-op
func (r *RecordingT) Helper() {}

// Failed reports whether any failure was recorded
func (r *RecordingT) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors) > 0 || r.failNows > 0
}

// FailNowCount returns how often FailNow was called
func (r *RecordingT) FailNowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failNows
}

// Messages returns the recorded failure messages
func (r *RecordingT) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

// Output joins all recorded messages
func (r *RecordingT) Output() string {
	return strings.Join(r.Messages(), "\n")
}
