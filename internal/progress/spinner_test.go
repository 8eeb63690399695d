//go:build unit

package progress

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_DrawsAndClears(t *testing.T) {
	out := &syncBuffer{}
	s := NewForced(out)

	s.Start("Running PMD")
	time.Sleep(3 * frameInterval / 2)
	s.Update("Still running PMD")
	time.Sleep(3 * frameInterval / 2)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Running PMD [00:00]") {
		t.Errorf("expected the first message, got %q", got)
	}
	if !strings.Contains(got, "Still running PMD") {
		t.Errorf("expected the updated message, got %q", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("expected the line to be cleared on stop, got %q", got)
	}
}

func TestSpinner_NonTerminalIsSilent(t *testing.T) {
	out := &syncBuffer{}
	s := New(out)

	s.Start("Running PMD")
	time.Sleep(frameInterval * 2)
	s.Stop()

	if out.String() != "" {
		t.Errorf("expected no output for a non-terminal writer, got %q", out.String())
	}
}

func TestSpinner_StopIsIdempotentAndRestartable(t *testing.T) {
	out := &syncBuffer{}
	s := NewForced(out)

	s.Stop()
	s.Start("first")
	s.Start("ignored while running")
	s.Stop()
	s.Stop()
	s.Start("second")
	s.Stop()

	if !strings.Contains(out.String(), "second") {
		t.Errorf("expected a restarted spinner to draw, got %q", out.String())
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck
	if IsTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
}

func TestCancelOnEscape_NonTerminalReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		CancelOnEscape(ctx, cancel)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		cancel()
		<-done
	}
}

func TestListenForEscape_StopWaitsForListener(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	defer cancelParent()

	ctx, stop := ListenForEscape(parent)
	if ctx.Err() != nil {
		t.Fatalf("context canceled before any key: %v", ctx.Err())
	}

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
	if !errors.Is(ctx.Err(), context.Canceled) {
		t.Errorf("ctx.Err() = %v after stop, want context.Canceled", ctx.Err())
	}
	if parent.Err() != nil {
		t.Error("stop must not cancel the parent context")
	}
}

func TestListenForEscape_FollowsParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, stop := ListenForEscape(parent)
	defer stop()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("listener context ignored parent cancellation")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{65 * time.Second, "01:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
	}

	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
