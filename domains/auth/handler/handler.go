package handler

import (
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/domains/auth/service"
	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/auth"
	"github.com/deskradar/clients-api/platform/validation"
	"github.com/deskradar/clients-api/platform/web"
)

var urlTemplatePattern = regexp.MustCompile(`^https://[a-z0-9-]+\.deskradar\.com/.*%token%.*$`)

func loginSchema() *validation.Schema {
	return validation.Object(
		validation.String("type").OneOf(auth.TypeClient, auth.TypeUser).Required(),
		validation.String("email").Email().Required(),
		validation.String("url_template").URI().Regex(urlTemplatePattern).Message("must be a valid url template").Required(),
	)
}

// Handler exposes the magic-link login routes.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
	schema *validation.Schema
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("auth service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger, schema: loginSchema()}
}

// Routes mounts the login endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Login)
	r.Get("/confirm/{token}", h.Confirm)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	payload, err := web.DecodeJSON(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	validated, err := h.schema.Validate(payload)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	input := service.LoginInput{
		Type:        validated["type"].(string),
		Email:       validated["email"].(string),
		URLTemplate: validated["url_template"].(string),
	}

	if err := h.svc.Login(r.Context(), input); err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusAccepted, map[string]any{"success": true})
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Confirm(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, map[string]any{
		"token":       result.Token,
		"valid_until": result.ValidUntil.UTC().Format(time.RFC3339),
	})
}
