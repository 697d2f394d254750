// Package service holds the domain logic between the HTTP layer and the
// repositories.  Services take the caller's identity as an explicit
// argument and never read it from ambient state.
package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNotFound is returned when a resource does not exist or is not
	// owned by the caller.
	ErrNotFound = errors.New("resource not found")
	// ErrOwnerNotFound is returned when the referenced owner does not exist.
	ErrOwnerNotFound = errors.New("owner not found")
)

// ValidationError reports invalid input per field.  Keys are the JSON field
// names of the request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// orNil returns e when at least one field failed.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func fieldError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}
