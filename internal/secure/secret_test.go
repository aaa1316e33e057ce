package secure

import (
	"errors"
	"fmt"
	"testing"
)

func TestSecretReveal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{name: "plain password", value: "s3cr3t"},
		{name: "empty value", value: ""},
		{name: "whitespace and unicode kept", value: "  pässwörd\n\t"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewSecret(tt.value)
			defer s.Destroy()

			// Should be able to reveal multiple times
			for i := 0; i < 3; i++ {
				got, err := s.Reveal()
				if err != nil {
					t.Fatalf("Reveal() iteration %d error = %v", i, err)
				}
				if got != tt.value {
					t.Errorf("Reveal() = %q, want %q", got, tt.value)
				}
			}
		})
	}
}

func TestSecretUse(t *testing.T) {
	t.Parallel()

	s := NewSecret("s3cr3t")
	defer s.Destroy()

	var seen string
	if err := s.Use(func(v string) error { seen = v; return nil }); err != nil {
		t.Fatalf("Use() error = %v", err)
	}
	if seen != "s3cr3t" {
		t.Errorf("Use() passed %q", seen)
	}

	boom := errors.New("boom")
	if err := s.Use(func(string) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Use() error = %v, want %v", err, boom)
	}
}

func TestSecretDestroy(t *testing.T) {
	t.Parallel()

	s := NewSecret("secret-to-destroy")

	// Destroy should not panic, twice included
	s.Destroy()
	s.Destroy()

	if _, err := s.Reveal(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Reveal() after Destroy error = %v, want ErrDestroyed", err)
	}
}

func TestSecretFormatting(t *testing.T) {
	t.Parallel()

	s := NewSecret("never-printed")
	defer s.Destroy()

	for _, out := range []string{fmt.Sprintf("%s", s), fmt.Sprintf("%v", s), fmt.Sprintf("%#v", s)} {
		if out != "[REDACTED]" {
			t.Errorf("formatted secret = %q, want [REDACTED]", out)
		}
	}
}
