package credential

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// MaxReversibleLength is the longest plaintext accepted by the type 7 scheme.
// IOS rejects longer type 7 line and key passwords.
const MaxReversibleLength = 25

const type7Key = "dsfd;kfoA,.iyewrkldJKDHSUBsgvca69834ncxv9873254k;fg87"

func randomSalt() int {
	return rand.Intn(len(type7Key))
}

func encodeType7(plaintext string, salt int) (string, error) {
	if len(plaintext) > MaxReversibleLength {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrInputTooLong, len(plaintext), MaxReversibleLength)
	}
	for i := 0; i < len(plaintext); i++ {
		if c := plaintext[i]; c < 0x20 || c > 0x7e {
			return "", fmt.Errorf("%w: byte %d is not printable ASCII", ErrInvalidInput, i)
		}
	}

	out := make([]byte, len(plaintext))
	for i := 0; i < len(plaintext); i++ {
		out[i] = plaintext[i] ^ type7Key[(salt+i)%len(type7Key)]
	}
	return fmt.Sprintf("%02d", salt) + strings.ToUpper(hex.EncodeToString(out)), nil
}

func decodeType7(value string) (string, error) {
	if len(value) < 4 || len(value)%2 != 0 {
		return "", fmt.Errorf("%w: bad length %d", ErrMalformedValue, len(value))
	}
	if value[0] < '0' || value[0] > '9' || value[1] < '0' || value[1] > '9' {
		return "", fmt.Errorf("%w: bad salt", ErrMalformedValue)
	}
	salt, _ := strconv.Atoi(value[:2])

	raw, err := hex.DecodeString(value[2:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedValue, err)
	}
	for i := range raw {
		raw[i] ^= type7Key[(salt+i)%len(type7Key)]
	}
	return string(raw), nil
}
