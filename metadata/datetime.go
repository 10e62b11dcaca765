package metadata

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDateTime indicates a date or time outside the container's
// canonical 8/6-digit forms.
var ErrInvalidDateTime = errors.New("invalid date or time")

// ValidateDate accepts an empty value or a calendar-valid YYYYMMDD string.
// The field name travels in the error so a batch log identifies the culprit.
func ValidateDate(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("20060102", value); err != nil {
		return fmt.Errorf("%w: %s %q is not a valid YYYYMMDD date", ErrInvalidDateTime, field, value)
	}

	return nil
}

// ValidateTime accepts an empty value or a valid HHMMSS string.
func ValidateTime(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("150405", value); err != nil {
		return fmt.Errorf("%w: %s %q is not a valid HHMMSS time", ErrInvalidDateTime, field, value)
	}

	return nil
}
