// Package progress shows a terminal spinner while PMD runs.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	frameInterval = 100 * time.Millisecond
	escKey        = 27
)

// spinnerFrames defines the animation frames for the spinner
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line status with the elapsed time. A spinner
// created for a writer that is not a terminal prints nothing, so piped and
// CI output stays clean.
type Spinner struct {
	mu          sync.Mutex
	writer      io.Writer
	enabled     bool
	message     string
	startTime   time.Time
	running     bool
	stopChan    chan struct{}
	doneChan    chan struct{}
	spinnerIdx  int
	lastLineLen int
}

// New creates a spinner that draws only when w is a terminal
func New(w io.Writer) *Spinner {
	return &Spinner{writer: w, enabled: IsTerminal(w)}
}

// NewForced creates a spinner that always draws, for tests and for
// terminals the detection misses
func NewForced(w io.Writer) *Spinner {
	return &Spinner{writer: w, enabled: true}
}

// IsTerminal reports whether w is a file attached to a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start begins showing progress with the given message
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	if s.running || !s.enabled {
		s.message = message
		s.mu.Unlock()
		return
	}
	s.running = true
	s.message = message
	s.startTime = time.Now()
	s.spinnerIdx = 0
	s.lastLineLen = 0
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.mu.Unlock()

	go s.displayLoop()
}

// Update replaces the progress message
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop stops the spinner and clears its line
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop, done := s.stopChan, s.doneChan
	s.mu.Unlock()

	close(stop)
	<-done

	s.mu.Lock()
	s.clearLineLocked()
	s.mu.Unlock()
}

func (s *Spinner) displayLoop() {
	s.mu.Lock()
	stop, done := s.stopChan, s.doneChan
	s.mu.Unlock()
	defer close(done)

	s.render()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}

	frame := spinnerFrames[s.spinnerIdx]
	s.spinnerIdx = (s.spinnerIdx + 1) % len(spinnerFrames)

	line := fmt.Sprintf("\r%s %s [%s]", frame, s.message, formatElapsed(time.Since(s.startTime)))
	if len(line) < s.lastLineLen {
		s.clearLineLocked()
	}
	s.lastLineLen = len(line)

	fmt.Fprint(s.writer, line) //nolint:errcheck // Display error is non-critical
}

// clearLineLocked clears the current line (must be called with lock held)
func (s *Spinner) clearLineLocked() {
	if s.lastLineLen == 0 {
		return
	}
	fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", s.lastLineLen)) //nolint:errcheck // Display error is non-critical
	s.lastLineLen = 0
}

// CancelOnEscape calls cancel when ESC is pressed on a terminal stdin. It
// returns when ctx is done. Stdin is switched to raw mode for the duration.
func CancelOnEscape(ctx context.Context, cancel context.CancelFunc) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer func() {
		_ = term.Restore(fd, oldState) //nolint:errcheck // Best effort restore
	}()

	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := os.Stdin.SetReadDeadline(time.Now().Add(frameInterval)); err != nil {
			// Without deadlines the read would block past ctx
			return
		}

		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			continue
		}
		if buf[0] == escKey {
			cancel()
			return
		}
	}
}

// ListenForEscape returns a context that is canceled when ESC is pressed on
// a terminal stdin. stop cancels it and returns only after stdin has left
// raw mode, so callers can exit right after.
func ListenForEscape(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		defer close(done)
		CancelOnEscape(ctx, cancel)
	}()
	return ctx, func() {
		cancel()
		<-done
	}
}

// formatElapsed formats a duration as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
