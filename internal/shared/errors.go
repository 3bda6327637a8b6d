package shared

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates resource not found. Reads outside the caller's
	// authorization scope surface as ErrNotFound as well, so a caller cannot
	// distinguish a missing row from one it may not see.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the caller failed an authorization predicate on a write.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// ValidationError reports a field-level validation failure that was rejected
// before persistence.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ConstraintError reports a rejected state transition, such as editing a
// closed permit or reopening a permit whose reopen flag is off.
type ConstraintError struct {
	Reason string
}

func (e *ConstraintError) Error() string {
	return "constraint: " + e.Reason
}

// NewConstraintError builds a ConstraintError.
func NewConstraintError(reason string) *ConstraintError {
	return &ConstraintError{Reason: reason}
}

// ReferentialError reports a write referencing a row that does not exist.
type ReferentialError struct {
	Field string
}

func (e *ReferentialError) Error() string {
	return "referential: " + e.Field + " references a missing record"
}

// Postgres error codes relevant to the write paths.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// MapPgError converts unique and foreign key violations into the local error
// taxonomy. The field name is derived from the violated constraint, which the
// schema names <table>_<column>_key by convention.
func MapPgError(err error, fields map[string]string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if field, ok := fields[pgErr.ConstraintName]; ok {
			return NewValidationError(field, "already exists")
		}
		return NewValidationError(pgErr.ConstraintName, "already exists")
	case pgForeignKeyViolation:
		if field, ok := fields[pgErr.ConstraintName]; ok {
			return &ReferentialError{Field: field}
		}
		return &ReferentialError{Field: pgErr.ConstraintName}
	}
	return err
}
