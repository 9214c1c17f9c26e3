// Package securestring keeps secrets sealed in memory and reveals them on demand.
package securestring

import (
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
)

const redacted = "[REDACTED]"

// ErrNullArgument is returned when Reveal receives a nil value.
var ErrNullArgument = errors.New("securestring: null argument")

// SecureString is a secret sealed in an encrypted memguard enclave. The
// zero value is the empty secret.
type SecureString struct {
	enclave *memguard.Enclave
}

// New seals src and wipes it.
func New(src []byte) *SecureString {
	if len(src) == 0 {
		return &SecureString{}
	}
	return &SecureString{enclave: memguard.NewEnclave(src)}
}

// FromString seals a copy of s. The original string stays in ordinary memory.
func FromString(s string) *SecureString {
	return New([]byte(s))
}

// Len returns the length of the sealed plaintext.
func (s *SecureString) Len() int {
	if s == nil || s.enclave == nil {
		return 0
	}
	return s.enclave.Size()
}

// IsEmpty reports whether no secret is sealed.
func (s *SecureString) IsEmpty() bool { return s.Len() == 0 }

// Use opens the secret into a locked buffer for the duration of fn. The
// buffer is destroyed when fn returns; fn must not retain the slice.
func Use(s *SecureString, fn func(plain []byte) error) error {
	if s == nil {
		return ErrNullArgument
	}
	if s.enclave == nil {
		return fn(nil)
	}
	lb, err := s.enclave.Open()
	if err != nil {
		return fmt.Errorf("securestring: open enclave: %w", err)
	}
	defer lb.Destroy()
	return fn(lb.Bytes())
}

// Reveal returns the plaintext. The unsealed buffer is wiped on every exit
// path; the returned string is an ordinary heap copy.
func Reveal(s *SecureString) (string, error) {
	var out string
	err := Use(s, func(plain []byte) error {
		out = string(plain)
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// String never exposes the secret.
func (s *SecureString) String() string {
	if s.IsEmpty() {
		return ""
	}
	return redacted
}

// MarshalText redacts the secret.
func (s *SecureString) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// MarshalJSON redacts the secret.
func (s *SecureString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalText seals a copy of text.
func (s *SecureString) UnmarshalText(text []byte) error {
	buf := make([]byte, len(text))
	copy(buf, text)
	*s = *New(buf)
	return nil
}
