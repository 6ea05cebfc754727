// Package web holds the small request/response helpers shared by the route
// handlers.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/deskradar/clients-api/platform/apperrors"
)

// DecodeJSON reads the request body as a JSON object. A missing body decodes
// to an empty payload; malformed JSON is a validation failure.
func DecodeJSON(r *http.Request) (map[string]any, error) {
	payload := map[string]any{}

	if r.Body == nil {
		return payload, nil
	}

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, apperrors.ValidationMessage("invalid request body")
	}
	return payload, nil
}

// DecodeForm reads a form-encoded request body into a payload map, keeping
// the first value of each field.
func DecodeForm(r *http.Request) (map[string]any, error) {
	if err := r.ParseForm(); err != nil {
		return nil, apperrors.ValidationMessage("invalid request body")
	}

	payload := make(map[string]any, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			payload[key] = values[0]
		}
	}
	return payload, nil
}

// RespondJSON writes v with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
