package common

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict") // e.g., report already resolved
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed") // e.g., username already exists
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenExpired) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}

	// Store failures and anything unclassified surface as 500.
	return http.StatusInternalServerError
}

// PublicMessage returns the error text safe to expose to API clients.
// Unclassified errors collapse to a generic message; the cause stays in logs.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if HTTPStatusFromError(err) == http.StatusInternalServerError {
		return ErrInternalServer.Error()
	}
	return err.Error()
}
