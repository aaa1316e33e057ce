package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// statusCoder is implemented by errors that carry an HTTP response status
type statusCoder interface {
	HTTPStatus() int
}

// VaultError adds a suggestion to a failed vault step. The step's own message
// is kept as is so it still reads the same in logs.
func VaultError(server string, err error) error {
	if err == nil {
		return nil
	}

	suggestion := getVaultSuggestion(server, err)
	if suggestion == "" {
		return err
	}

	return UserError{
		Message:    err.Error(),
		Suggestion: suggestion,
		Err:        err,
	}
}

// getVaultSuggestion returns helpful suggestions based on the failure
func getVaultSuggestion(server string, err error) string {
	errStr := err.Error()

	var sc statusCoder
	if errors.As(err, &sc) {
		switch sc.HTTPStatus() {
		case http.StatusUnauthorized:
			if strings.HasPrefix(errStr, "Authentication") {
				return "Check the app key and app secret"
			}
			return "The session token was rejected. Check the clock and token lifetime on the server"
		case http.StatusForbidden:
			return "The application is not allowed to read this vault. Check its permissions"
		case http.StatusNotFound:
			return fmt.Sprintf("Verify the server URL points at the vault API: %s", server)
		}
	}

	if strings.Contains(errStr, "Vault '") && strings.Contains(errStr, "not found") {
		return "Vault names are matched exactly, including case. Run with --debug to list available vaults"
	}
	if strings.Contains(errStr, "Entry '") && strings.Contains(errStr, "not found") {
		return "Verify the entry name exists in the vault"
	}

	if strings.Contains(errStr, "x509") || strings.Contains(errStr, "certificate") {
		return "Provide the server's CA with --ca-file, or --skip-tls-verify for self-signed test servers"
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "The operation timed out. Check your network connection or raise --timeout"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return fmt.Sprintf("Unable to connect to %s. Check the server URL and your network", server)
	}

	return ""
}

// SimplifyError rewrites low-level failures that reach the top of the
// command into something a user can act on. The original text is kept in
// Details.
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Details:    err.Error(),
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Details:    err.Error(),
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
