// Package password generates initial credentials for provisioned
// principals.
package password

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultLength is the generated password length when none is given.
const DefaultLength = 16

const (
	lower   = "abcdefghijkmnopqrstuvwxyz"
	upper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digits  = "23456789"
	symbols = "!@#$%&*-_=+"
)

var classes = []string{lower, upper, digits, symbols}

// Generate returns a random password of the given length drawn from
// crypto/rand, with at least one character from each class. Lengths
// below the number of classes are raised to DefaultLength. Ambiguous
// glyphs (l, I, O, 0, 1) are excluded from the alphabet.
func Generate(length int) (string, error) {
	if length < len(classes) {
		length = DefaultLength
	}

	all := lower + upper + digits + symbols
	out := make([]byte, length)

	// One pick per class first, the rest from the full alphabet.
	for i, class := range classes {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	for i := len(classes); i < length; i++ {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	if err := shuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}

func pick(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, fmt.Errorf("failed to read randomness: %w", err)
	}
	return alphabet[n.Int64()], nil
}

// shuffle is a Fisher-Yates pass so the per-class picks don't sit at
// fixed positions.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to read randomness: %w", err)
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
