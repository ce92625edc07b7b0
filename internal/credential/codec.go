// Package credential encodes passwords for storage under one of two schemes.
//
// Irreversible values are bcrypt hashes and can only be checked with Verify.
// Reversible values use Cisco type 7 obfuscation so that a device-facing
// secret (AAA shared keys, enable secrets) can be handed back in cleartext to
// a protocol that performs its own challenge.
//
// A stored value does not record which scheme produced it. The caller always
// names the mode explicitly.
package credential

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Mode selects the encoding scheme.
type Mode int

const (
	// Irreversible stores a salted one-way hash.
	Irreversible Mode = iota + 1
	// Reversible stores an obfuscated value that Decode can recover.
	Reversible
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Irreversible:
		return "irreversible"
	case Reversible:
		return "reversible"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ForUserPassword maps the deployment flag to the scheme used for interactive
// operator passwords. Production deployments never store recoverable
// operator passwords.
func ForUserPassword(production bool) Mode {
	if production {
		return Irreversible
	}
	return Reversible
}

// Encode produces the stored form of plaintext under mode.
func Encode(plaintext string, mode Mode) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyInput
	}

	switch mode {
	case Irreversible:
		if len(plaintext) > maxBcryptLength {
			return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrInputTooLong, len(plaintext), maxBcryptLength)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
		if err != nil {
			if errors.Is(err, bcrypt.ErrPasswordTooLong) {
				return "", fmt.Errorf("%w: %v", ErrInputTooLong, err)
			}
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(hash), nil
	case Reversible:
		return encodeType7(plaintext, randomSalt())
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}

// Decode recovers the plaintext of a Reversible value.
//
// Decoding anything produced in Irreversible mode is a programming error and
// returns ErrDecodeOnIrreversibleValue.
func Decode(value string) (string, error) {
	if value == "" {
		return "", ErrEmptyInput
	}
	if looksLikeBcrypt(value) {
		return "", ErrDecodeOnIrreversibleValue
	}
	return decodeType7(value)
}

// Verify reports whether candidate matches the stored value.
func Verify(candidate, stored string, mode Mode) bool {
	if candidate == "" || stored == "" {
		return false
	}

	switch mode {
	case Irreversible:
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	case Reversible:
		plain, err := decodeType7(stored)
		if err != nil {
			return false
		}
		return subtle.ConstantTimeCompare([]byte(plain), []byte(candidate)) == 1
	default:
		return false
	}
}

const maxBcryptLength = 72

func looksLikeBcrypt(value string) bool {
	if !strings.HasPrefix(value, "$2") {
		return false
	}
	_, err := bcrypt.Cost([]byte(value))
	return err == nil
}
