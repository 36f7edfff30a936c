package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"taskmanager/backend/apperrors"
	"taskmanager/backend/middleware"
	"taskmanager/backend/models"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return apperrors.NewValidation("Request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return apperrors.NewValidation("Invalid request body: %v", err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for routes where every field may be
// omitted: an empty body leaves v untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewValidation("Invalid request body: %v", err)
	}
	return nil
}

func callerOf(r *http.Request) (models.Caller, error) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		return models.Caller{}, apperrors.NewAuthentication("Unauthorized, no Token")
	}
	return caller, nil
}
