package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers both missing entities and entities owned by someone else.
	ErrNotFound = errors.New("not found")

	// ErrTransient marks a storage failure that aborted a whole atomic unit.
	// Nothing was persisted and the caller may resubmit the request.
	ErrTransient = errors.New("temporary storage failure")

	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidType        = errors.New("invalid type")
	ErrInvalidColor       = errors.New("invalid color")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("too long")
	ErrMissingAccount     = errors.New("missing account")
	ErrDescriptionTooLong = errors.New("description too long (max 255 characters)")
)

// ValidationError carries field-level detail for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
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

// FieldError builds a single-field ValidationError.
func FieldError(field string, err error) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: err.Error()}}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// validation accumulates field problems; err returns nil when there are none.
type validation map[string]string

func (v validation) add(field string, err error) {
	if err != nil {
		if _, exists := v[field]; !exists {
			v[field] = err.Error()
		}
	}
}

func (v validation) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Fields: map[string]string(v)}
}

type transientError struct {
	op  string
	err error
}

func (e *transientError) Error() string   { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e *transientError) Unwrap() []error { return []error{ErrTransient, e.err} }

// Transient wraps a storage failure of operation op so that errors.Is(err, ErrTransient)
// holds. Validation and not-found errors pass through unchanged.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || IsValidation(err) || errors.Is(err, ErrTransient) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &transientError{op: op, err: err}
}
