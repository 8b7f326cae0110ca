// Package validation defines the field-level validation error shared by usecases.
package validation

import (
	"sort"
	"strings"
)

// Error collects validation failures keyed by JSON field name.
type Error struct {
	Fields map[string]string
}

// New returns an empty Error.
func New() *Error {
	return &Error{Fields: map[string]string{}}
}

// Add records a failure for field. The first message for a field wins.
func (e *Error) Add(field, msg string) {
	if _, ok := e.Fields[field]; ok {
		return
	}
	e.Fields[field] = msg
}

// Empty reports whether no failures were recorded.
func (e *Error) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns e when it holds failures and nil otherwise, so callers can
// `return verr.OrNil()` without returning a typed nil.
func (e *Error) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// FieldError is a convenience constructor for a single-field failure.
func FieldError(field, msg string) *Error {
	e := New()
	e.Add(field, msg)
	return e
}
