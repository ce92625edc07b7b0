package credential

import "errors"

// Codec errors.
var (
	// ErrEmptyInput indicates an empty plaintext or stored value.
	ErrEmptyInput = errors.New("empty input")

	// ErrInputTooLong indicates the plaintext exceeds the scheme's length cap.
	// Values are rejected, never truncated.
	ErrInputTooLong = errors.New("input too long")

	// ErrInvalidInput indicates plaintext the scheme cannot represent.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDecodeOnIrreversibleValue indicates an attempt to decode a one-way hash.
	ErrDecodeOnIrreversibleValue = errors.New("decode called on irreversible value")

	// ErrMalformedValue indicates a stored value that is not a valid type 7 string.
	ErrMalformedValue = errors.New("malformed encoded value")

	// ErrUnknownMode indicates a Mode outside Irreversible and Reversible.
	ErrUnknownMode = errors.New("unknown encoding mode")
)
