package schemas

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrInvalidValue is the sentinel wrapped by every validator failure.
// Callers re-request the field; the value is never stored.
var ErrInvalidValue = errors.New("invalid field value")

// NonEmpty rejects blank values.
func NonEmpty(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidValue)
	}
	return nil
}

// Age rejects non-numeric or implausible ages.
func Age(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: age must be a number", ErrInvalidValue)
	}
	if n < 0 || n > 130 {
		return fmt.Errorf("%w: age out of range", ErrInvalidValue)
	}
	return nil
}

// Phone accepts digits with optional +, spaces, and dashes, at least 7 digits.
func Phone(value string) error {
	digits := 0
	for i, r := range strings.TrimSpace(value) {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return fmt.Errorf("%w: phone contains invalid character", ErrInvalidValue)
		}
	}
	if digits < 7 {
		return fmt.Errorf("%w: phone too short", ErrInvalidValue)
	}
	return nil
}

// OneOf accepts only the listed values, case-insensitively.
func OneOf(values ...string) ValidatorFunc {
	return func(value string) error {
		v := strings.ToLower(strings.TrimSpace(value))
		if !slices.Contains(values, v) {
			return fmt.Errorf("%w: must be one of %s", ErrInvalidValue, strings.Join(values, ", "))
		}
		return nil
	}
}
