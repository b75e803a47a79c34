package bloghost

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by the store and the ingestion pipeline.
var (
	// ErrNotFound indicates that a requested blog, post, author, or tag does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates that a write collided with an existing sibling key
	// or an already-registered linkback.
	ErrConflict = errors.New("already exists")

	// ErrAccessDenied indicates a disabled feature or a blocklisted address.
	ErrAccessDenied = errors.New("access denied")
)

// ValidationError reports malformed input with the field that failed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %q: %s", e.Field, e.Message)
}

// PartialRekeyError reports that the primary entity swap of a re-key succeeded
// but one or more cascade writes (child re-parenting or cross-reference
// rewrites) failed. The new entity is live; the caller should schedule a
// repair pass for the listed failures.
type PartialRekeyError struct {
	Ref      EntityRef // the new, successfully created key
	Failures []error
}

func (e *PartialRekeyError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("rekey of %s incomplete: %s", e.Ref, strings.Join(msgs, "; "))
}

func (e *PartialRekeyError) Unwrap() []error {
	return e.Failures
}
