package ierr

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrValidation       = newInternal(ErrCodeValidation, "validation error")
	ErrUnauthenticated  = newInternal(ErrCodeUnauthenticated, "authentication required")
	ErrPermissionDenied = newInternal(ErrCodePermissionDenied, "permission denied")
	ErrNotFound         = newInternal(ErrCodeNotFound, "resource not found")
	ErrConflict         = newInternal(ErrCodeConflict, "conflict")
	ErrDatabase         = newInternal(ErrCodeDatabase, "database error")
	ErrSystem           = newInternal(ErrCodeSystemError, "system error")

	// checked in order; the first matching sentinel wins
	statusCodes = []struct {
		err    error
		status int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrDatabase, http.StatusInternalServerError},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeValidation       = "validation_error"
	ErrCodeUnauthenticated  = "unauthenticated"
	ErrCodePermissionDenied = "permission_denied"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeDatabase         = "database_error"
	ErrCodeSystemError      = "system_error"
)

const defaultDisplayMessage = "An unexpected error occurred"

// InternalError is a sentinel carrying a machine-readable code.
type InternalError struct {
	Code    string
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}
	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}
	return e.Code == t.Code
}

func newInternal(code string, message string) *InternalError {
	return &InternalError{Code: code, Message: message}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func IsValidation(err error) bool       { return errors.Is(err, ErrValidation) }
func IsUnauthenticated(err error) bool  { return errors.Is(err, ErrUnauthenticated) }
func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }
func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool         { return errors.Is(err, ErrConflict) }
func IsDatabase(err error) bool         { return errors.Is(err, ErrDatabase) }

// HTTPStatusFromErr maps a marked error to an HTTP status; unmarked errors are 500.
func HTTPStatusFromErr(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}

// DisplayMessage returns the first non-empty hint attached to err. Hints are
// the only part of an error that may reach a caller.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, hint := range errors.GetAllHints(err) {
		if hint = strings.TrimSpace(hint); hint != "" {
			return hint
		}
	}
	return defaultDisplayMessage
}
