package ml

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrModelLoad       = errors.New("model load failed")
	ErrSchemaMismatch  = errors.New("schema mismatch")
)

// InvalidCategoryError reports a value outside a field's closed vocabulary.
type InvalidCategoryError struct {
	Field string
	Value string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid %s", ErrInvalidCategory, e.Value, e.Field)
}

func (e *InvalidCategoryError) Unwrap() error {
	return ErrInvalidCategory
}
