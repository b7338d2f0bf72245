package validation

import (
	"errors"
	"strings"
)

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("Password must be at least 8 characters.")
	}

	// bcrypt silently truncates passwords longer than 72 bytes
	if len(password) > 72 {
		return errors.New("Password must not exceed 72 characters.")
	}

	lower := strings.ToLower(password)
	commonPatterns := []string{
		"password", "123456", "qwerty", "letmein", "sonsoftheforest",
	}
	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return errors.New("Password is too common, please choose a stronger one.")
		}
	}

	return nil
}
