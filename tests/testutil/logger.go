package testutil

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/systmms/vaultfetch/internal/logging"
)

// TestLogger captures log output for validation in tests.
//
// It satisfies vaultapi.Diagnostics, so it can stand in wherever the client,
// runner or pipeline emit debug detail. Values passed to AddSecret are
// redacted the same way logging.Logger redacts them.
//
// Example usage:
//
//	logger := testutil.NewTestLoggerWithDebug(t, true)
//	client, _ := vaultapi.NewClient(srv.URL, vaultapi.WithDiagnostics(logger))
//
//	logger.AssertContains(t, "Starting request: Authentication")
//	logger.AssertNotContains(t, "app-secret-value")
type TestLogger struct {
	buffer  *bytes.Buffer
	debug   bool
	secrets []string
	mu      sync.Mutex
}

// NewTestLogger creates a new TestLogger with debug output disabled.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()

	return &TestLogger{
		buffer: &bytes.Buffer{},
	}
}

// NewTestLoggerWithDebug creates a new TestLogger that captures Debug calls
// when debug is true.
func NewTestLoggerWithDebug(t *testing.T, debug bool) *TestLogger {
	t.Helper()

	return &TestLogger{
		buffer: &bytes.Buffer{},
		debug:  debug,
	}
}

// AddSecret registers a value that must never appear in the captured output.
func (l *TestLogger) AddSecret(value string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.secrets = append(l.secrets, value)
}

// Info logs an informational message.
func (l *TestLogger) Info(format string, args ...interface{}) {
	l.write("✓ ", format, args...)
}

// Error logs an error message.
func (l *TestLogger) Error(format string, args ...interface{}) {
	l.write("✗ ", format, args...)
}

// Debug logs a debug message if debug mode is enabled.
func (l *TestLogger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.write("[DEBUG] ", format, args...)
}

func (l *TestLogger) write(prefix, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := logging.Redact(fmt.Sprintf(format, args...), l.secrets)
	fmt.Fprintf(l.buffer, "%s%s\n", prefix, msg)
}

// GetOutput returns the captured log output as a string.
func (l *TestLogger) GetOutput() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.buffer.String()
}

// Clear clears the captured log output.
func (l *TestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buffer.Reset()
}

// AssertContains asserts that the log output contains the specified substring.
func (l *TestLogger) AssertContains(t *testing.T, substr string) {
	t.Helper()

	output := l.GetOutput()
	assert.Contains(t, output, substr, "Expected log output to contain %q", substr)
}

// AssertNotContains asserts that the log output does NOT contain the specified substring.
//
// This is particularly useful for verifying that secrets are redacted.
func (l *TestLogger) AssertNotContains(t *testing.T, substr string) {
	t.Helper()

	output := l.GetOutput()
	assert.NotContains(t, output, substr, "Expected log output to NOT contain %q", substr)
}

// AssertEmpty asserts that no log output was captured.
func (l *TestLogger) AssertEmpty(t *testing.T) {
	t.Helper()

	output := l.GetOutput()
	assert.Empty(t, output, "Expected no log output, but got:\n%s", output)
}

// Lines returns the log output split into individual lines.
//
// Empty lines are filtered out.
func (l *TestLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := strings.Split(l.buffer.String(), "\n")

	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}

	return result
}
