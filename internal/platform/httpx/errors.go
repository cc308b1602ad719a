// Package httpx provides HTTP response utilities and the gateway error taxonomy.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the reporting domain. Handlers wrap these with
// fmt.Errorf("...: %w", Err...) so RespondError can map them to status codes.
var (
	// ErrMissingParameter indicates a required query parameter was absent.
	ErrMissingParameter = errors.New("missing required parameter")
	// ErrInvalidParameter indicates a query parameter failed to parse or is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrUnauthorized indicates a missing or mismatched bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates no record matched the lookup.
	ErrNotFound = errors.New("not found")
	// ErrSchemaMismatch indicates a load-bearing column is absent from the live schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrSchemaUnavailable indicates catalog introspection could not execute.
	ErrSchemaUnavailable = errors.New("schema unavailable")
	// ErrUpstreamQuery indicates the warehouse failed to execute a report query.
	ErrUpstreamQuery = errors.New("upstream query failure")
)

// StatusForError resolves the HTTP status code for a domain error.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrMissingParameter), errors.Is(err, ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSchemaMismatch):
		return http.StatusInternalServerError
	case errors.Is(err, ErrSchemaUnavailable), errors.Is(err, ErrUpstreamQuery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes a domain error using the gateway's JSON error contract.
// Unclassified internal failures keep their detail out of the response body.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, ErrSchemaMismatch) {
		message = http.StatusText(http.StatusInternalServerError)
	}
	Error(w, status, message)
}
