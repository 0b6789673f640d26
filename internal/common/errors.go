package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("requested resource not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden access")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("resource conflict") // e.g., username already exists
	ErrValidation      = errors.New("validation failed")
	ErrInUse           = errors.New("resource in use")
	ErrTooManyRequests = errors.New("too many requests")
)

// Lending errors. Each wraps one of the kinds above so HTTPStatusFromError
// can map it without knowing the specific case.
var (
	ErrMissingField       = fmt.Errorf("missing required fields: %w", ErrValidation)
	ErrInvalidFormat      = fmt.Errorf("invalid format: %w", ErrValidation)
	ErrDuplicateUsername  = fmt.Errorf("username already exists: %w", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", ErrUnauthorized)
	ErrUserNotFound       = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrBookNotFound       = fmt.Errorf("book not found: %w", ErrNotFound)
	ErrLoanNotFound       = fmt.Errorf("loan not found: %w", ErrNotFound)
	ErrBookOnLoan         = fmt.Errorf("book already has an outstanding loan: %w", ErrInUse)
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	// Duplicate usernames are reported as a bad registration, not 409.
	if errors.Is(err, ErrConflict) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrInUse) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrTooManyRequests) {
		return http.StatusTooManyRequests
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return http.StatusBadRequest
		case pgForeignKeyViolation:
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsForeignKeyViolation reports whether err is a Postgres foreign key failure.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// ConstraintName returns the violated constraint for Postgres errors, or "".
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
