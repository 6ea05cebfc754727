package apperrors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/deskradar/clients-api/platform/logging"
)

// Non-internal errors always carry message and details, even when empty, to
// keep the payload shape stable for API consumers.
type errorResponse struct {
	Error   bool    `json:"error"`
	Name    string  `json:"name"`
	Message *string `json:"message,omitempty"`
	Details any     `json:"details,omitempty"`
}

// Write serializes err as the uniform error payload. InternalError responses
// expose only the name; the full error goes to the request logger.
func Write(w http.ResponseWriter, r *http.Request, fallback *zap.Logger, err error) {
	appErr := Coerce(err)

	logger := logging.FromRequest(r, fallback)
	if logger != nil {
		fields := []zap.Field{
			zap.String("error_name", appErr.Name),
			zap.Int("status", appErr.Status),
			zap.Error(err),
		}
		if appErr.IsInternal() {
			logger.Error("request failed", fields...)
		} else {
			logger.Info("request rejected", fields...)
		}
	}

	body := errorResponse{
		Error: true,
		Name:  appErr.Name,
	}
	if !appErr.IsInternal() {
		message := appErr.Message
		body.Message = &message
		body.Details = appErr.Details
		if body.Details == nil {
			body.Details = map[string]any{}
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(body)
}
