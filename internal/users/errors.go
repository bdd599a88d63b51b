package users

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmailExists is returned when a user with the same email is already stored.
var ErrEmailExists = errors.New("email already exists")

// FieldError names an input field and the rule it failed.
type FieldError struct {
	Field string
	Rule  string
}

// ValidationError carries every rule an input failed. Nothing is written
// when it is returned.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Field, f.Rule))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// HasField reports whether field failed any rule.
func (e *ValidationError) HasField(field string) bool {
	return hasField(e.Fields, field)
}
