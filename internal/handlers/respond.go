package handlers

import (
	"encoding/json"
	"net/http"

	"field-backend/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error classification to an HTTP status and returns
// the reason as a JSON body.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperrors.HTTPStatus(err), map[string]string{
		"error": err.Error(),
		"kind":  string(apperrors.KindOf(err)),
	})
}
