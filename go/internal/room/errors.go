package room

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrTimerNotFound is returned when an operation names an unknown timer.
	ErrTimerNotFound = errors.New("timer not found")
	// ErrRoomNotFound is returned for unknown saved rooms and templates.
	ErrRoomNotFound = errors.New("room not found")
	// ErrGeneration wraps failures from the text generation service.
	ErrGeneration = errors.New("generation failed")
	// ErrNothingToUndo is returned when no snapshot is held or it has expired.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// ValidationError reports rejected input per field.
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.FieldErrors[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{FieldErrors: map[string]string{field: msg}}
}
