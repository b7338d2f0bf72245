package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateName validates a user display name
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("Name is required.")
	}

	if utf8.RuneCountInString(trimmed) < 3 {
		return errors.New("Name must be at least 3 characters.")
	}

	if utf8.RuneCountInString(trimmed) > 32 {
		return errors.New("Name must not exceed 32 characters.")
	}

	return nil
}
