package otp

import (
	"strconv"
	"testing"
)

func TestNumericGenerate(t *testing.T) {
	gen := NewNumeric(6)

	for range 200 {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}

		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("expected numeric code, got %q", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestNumericDigitFallback(t *testing.T) {
	for _, digits := range []int{0, 3, 11, -1} {
		gen := NewNumeric(digits)
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("digits=%d: expected fallback to 6 digits, got %q", digits, code)
		}
	}
}

func TestNumericLength(t *testing.T) {
	for _, digits := range []int{4, 8, 10} {
		gen := NewNumeric(digits)
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != digits {
			t.Fatalf("expected %d digits, got %q", digits, code)
		}
		if code[0] == '0' {
			t.Fatalf("expected no leading zero, got %q", code)
		}
	}
}
