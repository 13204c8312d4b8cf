package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/partygame/internal/api/apierr"
)

// maxBodyBytes caps JSON request bodies; every request type here is tiny
const maxBodyBytes = 64 << 10

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return apierr.NewUnauthorizedError()
}

// decodeJSON reads the request body into dst. On failure it writes an
// INVALID_REQUEST response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, NewInvalidRequestError("request body too large"))
			return false
		}
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return false
	}
	return true
}
