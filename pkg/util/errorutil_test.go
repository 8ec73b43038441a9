package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToDomainErrorPassesThroughDomainError(t *testing.T) {
	err := NewValidationError("bad input", map[string]any{"title": "required"})
	domainErr := ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)
	assert.Equal(t, "required", domainErr.Details["title"])
}

func TestToDomainErrorMapsNoRowsToNotFound(t *testing.T) {
	domainErr := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
}

// A malformed uuid rejected by the cast must read as an absent row,
// not an internal failure.
func TestToDomainErrorMapsInvalidUUIDCastToNotFound(t *testing.T) {
	domainErr := ToDomainError(&pgconn.PgError{
		Code:    "22P02",
		Message: `invalid input syntax for type uuid: "123"`,
	})
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
}

func TestToDomainErrorKeepsOtherPgErrorsInternal(t *testing.T) {
	domainErr := ToDomainError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
}

func TestToDomainErrorWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("connection refused")
	domainErr := ToDomainError(cause)
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
	assert.ErrorIs(t, domainErr, cause)
}

func TestUnavailableStatus(t *testing.T) {
	domainErr := ToDomainError(NewUnavailable("classification unavailable", map[string]any{"postgres": "timeout"}))
	assert.Equal(t, "SERVICE_UNAVAILABLE", domainErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, domainErr.HTTPStatus)
	assert.Equal(t, "timeout", domainErr.Details["postgres"])
}
