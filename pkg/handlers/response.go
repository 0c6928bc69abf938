package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/seqcat-bio/seqcat-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// StatusForError maps the sync error taxonomy onto an HTTP status and a
// machine-readable error code. Unrecognized errors map to 500/internal.
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrNotAvailable):
		return http.StatusNotFound, "not_available"
	case errors.Is(err, apperrors.ErrInvalidQuery):
		return http.StatusBadRequest, "invalid_query"
	case errors.Is(err, apperrors.ErrAmbiguousAccessions):
		return http.StatusConflict, "ambiguous_accessions"
	case errors.Is(err, apperrors.ErrPortalUnavailable):
		return http.StatusBadGateway, "portal_unavailable"
	case errors.Is(err, apperrors.ErrPortalProtocol):
		return http.StatusBadGateway, "portal_protocol"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// WriteError writes the JSON error response for err. Internal error
// details are not echoed to the client.
func WriteError(w http.ResponseWriter, err error) error {
	status, code := StatusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	return ErrorResponse(w, status, code, message)
}
