// Package debug provides debug logging functionality for pmdgate.
package debug

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// EnvVar enables debug logging when set to a non-empty value other than "0"
const EnvVar = "PMDGATE_DEBUG"

// Logger provides debug logging capabilities
type Logger struct {
	mu      sync.Mutex
	enabled bool
	log     *logrus.Logger
	start   time.Time
}

// Global debug logger instance
var globalLogger = newLogger(os.Stderr)

func newLogger(w io.Writer) *Logger {
	l := &Logger{start: time.Now()}
	l.log = logrus.New()
	l.log.SetOutput(w)
	l.log.SetFormatter(&elapsedFormatter{logger: l})
	l.log.SetLevel(logrus.DebugLevel)
	return l
}

// elapsedFormatter renders entries as "[DEBUG <elapsed>] message key=value"
type elapsedFormatter struct {
	logger *Logger
}

// Format implements logrus.Formatter
func (f *elapsedFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("[DEBUG ")
	b.WriteString(formatDuration(entry.Time.Sub(f.logger.startTime())))
	b.WriteString("] ")
	b.WriteString(strings.TrimSuffix(entry.Message, "\n"))

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (l *Logger) startTime() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.start
}

// Enable enables debug logging
func Enable() {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.enabled = true
	globalLogger.start = time.Now()
}

// Disable turns debug logging off
func Disable() {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	globalLogger.enabled = false
}

// EnableFromEnv enables debug logging when EnvVar is set
func EnableFromEnv() {
	if v := os.Getenv(EnvVar); v != "" && v != "0" {
		Enable()
	}
}

// IsEnabled returns whether debug logging is enabled
func IsEnabled() bool {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	return globalLogger.enabled
}

// SetWriter sets the output writer for debug logs
func SetWriter(w io.Writer) {
	globalLogger.log.SetOutput(w)
}

// Log writes a debug message if debugging is enabled
func Log(format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	globalLogger.log.Debugf(format, args...)
}

// LogFields writes a debug message with structured fields attached
func LogFields(fields map[string]interface{}, format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	globalLogger.log.WithFields(logrus.Fields(fields)).Debugf(format, args...)
}

// LogSection writes a section header for better organization
func LogSection(title string) {
	Log("=== %s ===", title)
}

// LogCommand logs command execution details
func LogCommand(command string, args []string, workingDir string) {
	if !IsEnabled() {
		return
	}

	LogSection("Command Execution")
	Log("Command: %s", command)
	if len(args) > 0 {
		Log("Arguments: %v", args)
	}
	if workingDir != "" {
		Log("Working Directory: %s", workingDir)
	}
}

// LogTiming logs timing information
func LogTiming(operation string, duration time.Duration) {
	Log("Timing: %s took %s", operation, formatDuration(duration))
}

// LogPatternMatch logs pattern matching details
func LogPatternMatch(pattern, input string, matched bool) {
	if !IsEnabled() {
		return
	}

	status := "no match"
	if matched {
		status = "matched"
	}

	Log("Pattern: %q against %q - %s", pattern, truncate(input, 80), status)
}

// LogFilterProcess logs the filtering process
func LogFilterProcess(totalLines, suppressedLines, findingLines int) {
	Log("Filter: %d total lines -> %d suppressed -> %d findings", totalLines, suppressedLines, findingLines)
}

// LogError logs error details
func LogError(err error, context string) {
	Log("Error in %s: %v", context, err)
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// truncate shortens s to at most maxLen bytes without splitting a rune
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
