// Package console publishes a secret to a terminal.
package console

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"

	"github.com/systmms/vaultfetch/internal/logging"
	"github.com/systmms/vaultfetch/internal/sink"
)

// Format selects how Flush renders published values
type Format string

const (
	FormatRaw    Format = "raw"
	FormatDotenv Format = "dotenv"
	FormatJSON   Format = "json"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatRaw, FormatDotenv, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want raw, dotenv or json)", s)
	}
}

// Sink collects published values and writes them once with Flush, so nothing
// reaches the terminal unless the whole run succeeded.
type Sink struct {
	logger  *logging.Logger
	format  Format
	env     map[string]string
	outputs map[string]string
}

// New creates a console sink. Masked values are registered with logger.
func New(logger *logging.Logger, format Format) *Sink {
	return &Sink{
		logger:  logger,
		format:  format,
		env:     make(map[string]string),
		outputs: make(map[string]string),
	}
}

// Mask hides value from every later log line
func (s *Sink) Mask(value string) error {
	if s.logger != nil {
		s.logger.AddSecret(value)
	}
	return nil
}

// Publish records value for Flush
func (s *Sink) Publish(ch sink.Channel, name, value string) error {
	switch ch {
	case sink.ChannelEnv:
		s.env[name] = value
	case sink.ChannelOutput:
		s.outputs[name] = value
	default:
		return fmt.Errorf("unsupported channel %s", ch)
	}
	return nil
}

// Flush writes the published values to w in the configured format.
// The raw format prints the password output only, without a trailing newline.
func (s *Sink) Flush(w io.Writer) error {
	switch s.format {
	case FormatDotenv:
		out, err := godotenv.Marshal(s.env)
		if err != nil {
			return fmt.Errorf("failed to render dotenv output: %w", err)
		}
		_, err = fmt.Fprintln(w, out)
		return err
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(map[string]interface{}{
			"env":     s.env,
			"outputs": s.outputs,
		}); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	default:
		_, err := fmt.Fprint(w, s.outputs[sink.PasswordOutput])
		return err
	}
}

var _ sink.SecretSink = (*Sink)(nil)
