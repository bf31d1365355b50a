package service

import (
	"errors"
	"fmt"
)

// Sentinel errors the HTTP layer maps to status codes.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrExternalService = errors.New("external service error") // embedding, chat or vector store failure
	ErrBusy            = errors.New("operation already in progress")
)

// ValidationError reports a rejected request field, such as an empty query
// or an upload with an unsupported extension. It matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// WrapError prefixes err with msg, keeping it in the chain. A nil err stays nil.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
