// Package githubactions publishes secrets to a GitHub Actions runner using
// workflow commands and environment files.
package githubactions

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/systmms/vaultfetch/internal/sink"
)

const (
	envFileVar    = "GITHUB_ENV"
	outputFileVar = "GITHUB_OUTPUT"
)

// Sink writes workflow commands to out and appends to the runner's
// environment files when they are available.
type Sink struct {
	out       io.Writer
	getenv    func(string) string
	delimiter func() string
}

// New creates a Sink that reads file locations from the process environment
func New(out io.Writer) *Sink {
	return NewWithEnv(out, os.Getenv)
}

// NewWithEnv creates a Sink that reads file locations through getenv
func NewWithEnv(out io.Writer, getenv func(string) string) *Sink {
	return &Sink{
		out:    out,
		getenv: getenv,
		delimiter: func() string {
			return "ghadelimiter_" + uuid.NewString()
		},
	}
}

// Mask tells the runner to hide value in all later log output
func (s *Sink) Mask(value string) error {
	if value == "" {
		return nil
	}
	return s.issue("add-mask", nil, value)
}

// Publish exports value as an environment variable for later steps or sets
// it as a step output.
func (s *Sink) Publish(ch sink.Channel, name, value string) error {
	switch ch {
	case sink.ChannelEnv:
		if path := s.getenv(envFileVar); path != "" {
			return s.appendFileCommand(path, name, value)
		}
		return s.issue("set-env", map[string]string{"name": name}, value)
	case sink.ChannelOutput:
		if path := s.getenv(outputFileVar); path != "" {
			return s.appendFileCommand(path, name, value)
		}
		return s.issue("set-output", map[string]string{"name": name}, value)
	default:
		return fmt.Errorf("unsupported channel %s", ch)
	}
}

// Debug writes a debug message. The runner only shows it when step debug
// logging is enabled.
func (s *Sink) Debug(format string, args ...interface{}) {
	_ = s.issue("debug", nil, fmt.Sprintf(format, args...))
}

// Fail marks the step as failed with message
func (s *Sink) Fail(message string) {
	_ = s.issue("error", nil, message)
}

func (s *Sink) issue(command string, props map[string]string, message string) error {
	var b strings.Builder
	b.WriteString("::")
	b.WriteString(command)

	if len(props) > 0 {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" ")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(k + "=" + escapeProperty(props[k]))
		}
	}

	b.WriteString("::")
	b.WriteString(escapeData(message))
	b.WriteString("\n")

	_, err := io.WriteString(s.out, b.String())
	return err
}

// appendFileCommand writes name and value in the heredoc form the runner
// parses, so multi-line values survive.
func (s *Sink) appendFileCommand(path, name, value string) error {
	delimiter := s.delimiter()
	if strings.Contains(name, delimiter) {
		return fmt.Errorf("unexpected input: name should not contain the delimiter %q", delimiter)
	}
	if strings.Contains(value, delimiter) {
		return fmt.Errorf("unexpected input: value should not contain the delimiter %q", delimiter)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("unable to open runner file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter); err != nil {
		return fmt.Errorf("unable to write runner file %s: %w", path, err)
	}
	return nil
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}

var _ sink.SecretSink = (*Sink)(nil)
