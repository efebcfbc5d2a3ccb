package scenefile

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed         = errors.New("scenefile: malformed document")
	ErrMissingField      = errors.New("scenefile: missing field")
	ErrUnknownShape      = errors.New("scenefile: unknown shape")
	ErrUnknownConstraint = errors.New("scenefile: unknown constraint type")
	ErrDanglingReference = errors.New("scenefile: constraint references a missing body")
)

// FieldError locates a decoding failure inside a scene document.
type FieldError struct {
	Section string // "settings", "bodies" or "constraints"
	Index   int
	Field   string
	Err     error
}

func (e *FieldError) Error() string {
	loc := fmt.Sprintf("%s[%d]", e.Section, e.Index)
	if e.Section == "settings" {
		loc = e.Section
	}
	if e.Field != "" {
		loc += "." + e.Field
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func missing(section string, index int, field string) *FieldError {
	return &FieldError{Section: section, Index: index, Field: field, Err: ErrMissingField}
}
