package vaultapi

import (
	"errors"
	"fmt"
)

// ErrMissingToken is returned when the login response carries no session token
var ErrMissingToken = errors.New("login response did not contain a token")

// AuthenticationError reports a rejected or malformed login exchange
type AuthenticationError struct {
	StatusCode int    // zero when no response was received
	Message    string // server-provided message, if any
	Err        error
	Exchange   *Exchange
}

func (e *AuthenticationError) Error() string {
	return describe("authentication", e.StatusCode, e.Message, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ServerMessage returns the message the server attached to the failure
func (e *AuthenticationError) ServerMessage() string { return e.Message }

// HTTPStatus returns the response status, or zero
func (e *AuthenticationError) HTTPStatus() int { return e.StatusCode }

func (e *AuthenticationError) exchange() *Exchange { return e.Exchange }

func (e *AuthenticationError) cause() string {
	return causeText(e.StatusCode, e.Message, e.Err)
}

// LookupError reports a transport or protocol failure while listing vaults,
// finding an entry or fetching an entry's sensitive data.
type LookupError struct {
	Op         string // "list vaults", "find entry", "fetch entry"
	StatusCode int
	Message    string
	Err        error
	Exchange   *Exchange
}

func (e *LookupError) Error() string {
	return describe(e.Op, e.StatusCode, e.Message, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// ServerMessage returns the message the server attached to the failure
func (e *LookupError) ServerMessage() string { return e.Message }

// HTTPStatus returns the response status, or zero
func (e *LookupError) HTTPStatus() int { return e.StatusCode }

func (e *LookupError) exchange() *Exchange { return e.Exchange }

func (e *LookupError) cause() string {
	return causeText(e.StatusCode, e.Message, e.Err)
}

// EntryNotFoundError is returned when the entry lookup succeeded at the
// protocol level but yielded no usable id.
type EntryNotFoundError struct {
	Entry    string
	VaultID  string
	Exchange *Exchange
}

func (e *EntryNotFoundError) Error() string {
	return fmt.Sprintf("Entry '%s' not found", e.Entry)
}

func (e *EntryNotFoundError) exchange() *Exchange { return e.Exchange }

// VaultNotFoundError is raised by callers that treat an unmatched vault name as fatal.
// ResolveVault itself never returns it.
type VaultNotFoundError struct {
	Vault string
}

func (e *VaultNotFoundError) Error() string {
	return fmt.Sprintf("Vault '%s' not found", e.Vault)
}

// StepError is the uniform failure shape produced by Run.
type StepError struct {
	Description string
	Message     string
	StatusCode  int
	Err         error
}

func (e *StepError) Error() string {
	status := "none"
	if e.StatusCode > 0 {
		status = fmt.Sprintf("%d", e.StatusCode)
	}
	return fmt.Sprintf("%s failed: %s (Status: %s)", e.Description, e.Message, status)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func describe(op string, status int, message string, err error) string {
	return op + ": " + causeText(status, message, err)
}

// causeText is the failure without the operation prefix
func causeText(status int, message string, err error) string {
	switch {
	case message != "":
		return message
	case err != nil:
		return err.Error()
	case status > 0:
		return fmt.Sprintf("request failed with status code %d", status)
	default:
		return "request failed"
	}
}

type causer interface {
	cause() string
}

type serverMessager interface {
	ServerMessage() string
}

type statusCoder interface {
	HTTPStatus() int
}

type exchanger interface {
	exchange() *Exchange
}

// StatusOf returns the HTTP status carried anywhere in err's chain, or zero.
func StatusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return 0
}

// causeOf returns the innermost description of err that a user can act on
func causeOf(err error) string {
	if msg := serverMessageOf(err); msg != "" {
		return msg
	}
	var c causer
	if errors.As(err, &c) {
		return c.cause()
	}
	return err.Error()
}

func serverMessageOf(err error) string {
	var sm serverMessager
	if errors.As(err, &sm) {
		return sm.ServerMessage()
	}
	return ""
}

func exchangeOf(err error) *Exchange {
	var ex exchanger
	if errors.As(err, &ex) {
		return ex.exchange()
	}
	return nil
}
