package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateModName checks the display name of a mod or build
func ValidateModName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		return errors.New("Name is required.")
	case n < 3:
		return errors.New("Name must be at least 3 characters.")
	case n > 64:
		return errors.New("Name must not exceed 64 characters.")
	}
	return nil
}

func ValidateModShortDescription(s string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	switch {
	case n == 0:
		return errors.New("Short description is required.")
	case n < 10:
		return errors.New("Short description must be at least 10 characters.")
	case n > 160:
		return errors.New("Short description must not exceed 160 characters.")
	}
	return nil
}

func ValidateModDescription(s string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	switch {
	case n == 0:
		return errors.New("Description is required.")
	case n < 10:
		return errors.New("Description must be at least 10 characters.")
	case n > 20000:
		return errors.New("Description must not exceed 20000 characters.")
	}
	return nil
}

// ValidateChangelog checks a release changelog
func ValidateChangelog(s string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < 1 {
		return errors.New("Changelog is required.")
	}
	if n > 200 {
		return errors.New("Changelog must not exceed 200 characters.")
	}
	return nil
}
