package validation

import (
	"errors"
	"net/mail"
)

// ValidateEmail validates email format and length
// Uses Go's built-in net/mail parser which follows RFC 5322
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("Email is required.")
	}

	// RFC 5321: total max 254 with @
	if len(email) > 254 {
		return errors.New("Email is too long.")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("Invalid email address.")
	}

	return nil
}
