package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator produces one-time passcodes for email delivery.
type Generator interface {
	// Generate returns a new numeric passcode.
	Generate() (string, error)
}

// Numeric generates fixed-length numeric codes with a uniform distribution
// over codes that never start with zero, e.g. [100000, 999999] for 6 digits.
type Numeric struct {
	digits int
}

// NewNumeric constructs a Numeric generator. Lengths outside [4, 10] fall
// back to 6 digits.
func NewNumeric(digits int) *Numeric {
	if digits < 4 || digits > 10 {
		digits = 6
	}

	return &Numeric{digits: digits}
}

// Generate returns a new numeric passcode using crypto/rand.
func (n *Numeric) Generate() (string, error) {
	low := int64(1)
	for range n.digits - 1 {
		low *= 10
	}
	span := low*10 - low // e.g. 900000 for 6 digits

	v, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", low+v.Int64()), nil
}
