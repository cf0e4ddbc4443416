package core

import (
	"errors"
	"fmt"
)

// Sentinels for the error taxonomy. Typed errors below match them through
// errors.Is, so callers can branch on the kind without type assertions.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

// Repository-level sentinels. Backends return these (possibly wrapped) and the
// service translates them into the typed errors.
var (
	ErrNoRows        = errors.New("no rows in result set")
	ErrDuplicateName = errors.New("duplicate product name")
)

// ValidationError represents a single invalid or missing input.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a missing product.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a case-insensitive product name collision.
type ConflictError struct {
	Name       string
	ExistingID int64 // zero when the store rejected the write without telling us which row
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("product name %q already exists", e.Name)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// StorageError wraps any underlying I/O or transaction failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// storageErr wraps err unless it already belongs to the taxonomy.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) || errors.Is(err, ErrStorage) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
