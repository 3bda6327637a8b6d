package httpx

import (
	"errors"
	"net/http"

	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Error maps the application error taxonomy onto HTTP problem responses.
// Authorization failures on reads never reach this path; services convert
// them to shared.ErrNotFound before returning.
func Error(w http.ResponseWriter, err error) {
	var validation *shared.ValidationError
	if errors.As(err, &validation) {
		FieldProblem(w, http.StatusUnprocessableEntity, "Validation failed", validation.Field, validation.Reason)
		return
	}
	var constraint *shared.ConstraintError
	if errors.As(err, &constraint) {
		Problem(w, http.StatusConflict, "Conflict", constraint.Reason)
		return
	}
	var referential *shared.ReferentialError
	if errors.As(err, &referential) {
		FieldProblem(w, http.StatusUnprocessableEntity, "Invalid reference", referential.Field, "referenced record does not exist")
		return
	}
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not found", "")
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", "")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Invalid credentials", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal server error", "")
	}
}
