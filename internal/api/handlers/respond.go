package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/medbook/backend/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an error's type to a status code. Internal
// details are not echoed to the client.
func respondWithAppError(w http.ResponseWriter, err error, fallback string) {
	status := apperrors.HTTPStatus(err)
	message := fallback
	var appErr *apperrors.AppError
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		message = appErr.Message
	}
	respondWithError(w, status, message)
}
