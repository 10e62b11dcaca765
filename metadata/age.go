package metadata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAge indicates an integer age outside the plausible human range.
var ErrInvalidAge = errors.New("invalid age")

// FormatAge renders an integer age in years as the standard's zero-padded
// nnnY form ("45" becomes "045Y"). Integers outside 0-150 are rejected.
// Input that does not parse as an integer at all (say, a pre-formatted
// "045Y") passes through unchanged with the passthrough flag set, so the
// caller can record that it trusted the supplied text.
func FormatAge(age string) (formatted string, passthrough bool, err error) {
	age = strings.TrimSpace(age)
	if age == "" {
		return "", false, nil
	}

	years, convErr := strconv.Atoi(age)
	if convErr != nil {
		return age, true, nil
	}

	if years < 0 || years > 150 {
		return "", false, fmt.Errorf("%w: %d years is outside 0-150", ErrInvalidAge, years)
	}

	return fmt.Sprintf("%03dY", years), false, nil
}
