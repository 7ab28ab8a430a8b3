package bidsync

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidAmount    = errors.New("invalid bid amount")
	ErrTooManyDecimals  = errors.New("more than two decimal places")
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// MaxCents bounds every amount held in cents. Above 2^53 a wire float can no
// longer carry whole cents exactly.
const MaxCents int64 = 1 << 53

// ParseAmount parses a typed bid ("42", "42.5", "$42.50") into cents. The
// decimal string is read digit by digit, so no binary rounding happens.
func ParseAmount(input string) (int64, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" || !allDigits(whole) || !allDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, input, ErrTooManyDecimals)
	}

	var units int64
	if whole != "" {
		w, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || w > MaxCents/100 {
			return 0, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, input, ErrAmountOutOfRange)
		}
		units = w * 100
	}
	if frac != "" {
		f, _ := strconv.ParseInt(frac+strings.Repeat("0", 2-len(frac)), 10, 64)
		units += f
	}
	if units > MaxCents {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, input, ErrAmountOutOfRange)
	}
	if units == 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrInvalidAmount, input)
	}
	return units, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseWireAmount reads a non-negative amount the server rendered as a
// float, e.g. a page's data-current-price.
func ParseWireAmount(v string) (int64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, v)
	}
	cents, err := CentsFromFloat(f)
	if err != nil {
		return 0, err
	}
	if cents < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, v)
	}
	return cents, nil
}

// CentsFromFloat rounds a wire amount to whole cents. NaN, infinities and
// amounts beyond MaxCents are rejected.
func CentsFromFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrAmountOutOfRange, f)
	}
	r := math.Round(f * 100)
	if math.Abs(r) > float64(MaxCents) {
		return 0, fmt.Errorf("%w: %v", ErrAmountOutOfRange, f)
	}
	return int64(r), nil
}

// CentsToFloat converts cents back to the wire representation
func CentsToFloat(cents int64) float64 {
	return float64(cents) / 100
}

// FormatCents renders cents with exactly two decimals
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
