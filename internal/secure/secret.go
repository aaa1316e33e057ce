package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed Secret is read
var ErrDestroyed = errors.New("secret has been destroyed")

// Secret keeps a retrieved value encrypted in memory between the moment it is
// fetched and the moment it is handed to its consumers.
//
// Its String and GoString methods never return the value, so a Secret that
// ends up in a format string is printed as [REDACTED].
type Secret struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	empty     bool
	destroyed bool
}

// NewSecret seals value. memguard wipes the intermediate byte slice; the
// caller's string is immutable and left to the garbage collector.
func NewSecret(value string) *Secret {
	if value == "" {
		return &Secret{empty: true}
	}
	return &Secret{enclave: memguard.NewEnclave([]byte(value))}
}

// Reveal decrypts and returns a copy of the value.
func (s *Secret) Reveal() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return "", ErrDestroyed
	}
	if s.empty {
		return "", nil
	}

	locked, err := s.enclave.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()

	return string(locked.Bytes()), nil
}

// Use calls fn with the plaintext value
func (s *Secret) Use(fn func(value string) error) error {
	value, err := s.Reveal()
	if err != nil {
		return err
	}
	return fn(value)
}

// Destroy drops the enclave. Later reads fail with ErrDestroyed.
// Calling Destroy more than once is safe.
func (s *Secret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = nil
	s.destroyed = true
}

// String implements fmt.Stringer without exposing the value
func (s *Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer without exposing the value
func (s *Secret) GoString() string {
	return "[REDACTED]"
}

// Purge wipes every memguard buffer in the process. Call it on exit.
func Purge() {
	memguard.Purge()
}
