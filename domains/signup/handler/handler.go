package handler

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/domains/signup/service"
	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/validation"
	"github.com/deskradar/clients-api/platform/web"
)

var (
	domainPattern = regexp.MustCompile(`^[a-z0-9]+$`)
	tokenPattern  = regexp.MustCompile(`^[a-zA-Z0-9]{64}$`)
)

func signupSchema() *validation.Schema {
	return validation.Object(
		validation.String("name").Max(140).Message("is too long").Required(),
		validation.String("email").Email().Required(),
		validation.String("organization").Max(140).Message("is too long").Required(),
		validation.String("domain").
			Min(3).Message("is too short").
			Max(32).Message("is too long").
			Regex(domainPattern).Message("is invalid").
			Required(),
		validation.String("country").Country().Required(),
		validation.Boolean("consent").Required(),
		validation.Boolean("marketing_consent").Required(),
	)
}

func confirmSchema() *validation.Schema {
	return validation.Object(
		validation.String("token").Regex(tokenPattern).Message("is invalid").Required(),
	)
}

// Handler exposes the account registration routes.
type Handler struct {
	svc           service.Service
	logger        *zap.Logger
	createSchema  *validation.Schema
	confirmSchema *validation.Schema
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("signup service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{
		svc:           svc,
		logger:        logger,
		createSchema:  signupSchema(),
		confirmSchema: confirmSchema(),
	}
}

// Routes mounts the signup endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/confirm/{token}", h.Confirm)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, err := web.DecodeJSON(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	validated, err := h.createSchema.Validate(payload)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	input := service.SignupInput{
		Name:             validated["name"].(string),
		Email:            validated["email"].(string),
		Organization:     validated["organization"].(string),
		Domain:           validated["domain"].(string),
		Country:          validated["country"].(string),
		Consent:          validated["consent"].(bool),
		MarketingConsent: validated["marketing_consent"].(bool),
	}

	if err := h.svc.Signup(r.Context(), input); err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{"token": chi.URLParam(r, "token")}
	validated, err := h.confirmSchema.Validate(params)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	if err := h.svc.Confirm(r.Context(), validated["token"].(string)); err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}
