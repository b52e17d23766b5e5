package app

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates the requested book does not exist.
	ErrNotFound = errors.New("book not found")
)

// ValidationError reports the required fields missing from a request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
