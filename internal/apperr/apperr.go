// Package apperr holds the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized, login required")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrUpload       = errors.New("an error occurred during file upload")
)

// FieldError is a single field/message violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found by a check, not only the first.
type ValidationError struct {
	Fields []FieldError
	Err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, " ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError with a single field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// InvalidCause is Invalid with an underlying sentinel kept for errors.Is.
func InvalidCause(field, message string, cause error) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}, Err: cause}
}

// Collector accumulates field violations. The first merged cause is kept.
type Collector struct {
	fields []FieldError
	cause  error
}

func (c *Collector) Add(field, message string) {
	c.fields = append(c.fields, FieldError{Field: field, Message: message})
}

// Merge appends the fields of err when it is a ValidationError, and reports whether it was.
func (c *Collector) Merge(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		c.fields = append(c.fields, ve.Fields...)
		if c.cause == nil {
			c.cause = ve.Err
		}
		return true
	}
	return false
}

// Err returns nil when nothing was collected.
func (c *Collector) Err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields, Err: c.cause}
}

// Fields extracts violations from err, or nil.
func Fields(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
