package utils

import (
	"encoding/json"
	"net/http"

	"lpg-backend/internal/apperr"
)

// JSON writes data as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response. The status and client-visible message come
// from the error's kind; internal errors flatten to a generic message.
func Error(w http.ResponseWriter, err error) {
	JSON(w, apperr.HTTPStatus(err), map[string]string{"error": apperr.Message(err)})
}

// BadRequest writes a 400 with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
