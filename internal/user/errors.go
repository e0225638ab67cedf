package user

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates no user matched the given internal or Clerk id.
var ErrNotFound = errors.New("user not found")

// ValidationError reports a required create field that was empty or absent.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return "missing required field: " + e.Field
}

// DuplicateKeyError reports a uniqueness violation on insert, naming the
// conflicting field.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key error: %s already exists", e.Field)
}

// IsDuplicateKey reports whether err is a DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}
