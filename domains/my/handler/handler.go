package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/domains/clients/service"
	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/auth"
	"github.com/deskradar/clients-api/platform/persistence"
	"github.com/deskradar/clients-api/platform/validation"
	"github.com/deskradar/clients-api/platform/web"
)

func profileSchema() *validation.Schema {
	return validation.Object(
		validation.String("name").Max(140).Message("is too long"),
		validation.String("organization").Max(140).Message("is too long"),
		validation.String("country").Country(),
		validation.Boolean("marketing_consent"),
	)
}

// Handler exposes a client's own profile routes.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
	schema *validation.Schema
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("clients service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger, schema: profileSchema()}
}

// Routes mounts the profile endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Patch("/", h.Edit)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	clientID, err := principalClientID(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	client, err := h.svc.Profile(r.Context(), clientID)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, profileResponse(client))
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	clientID, err := principalClientID(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

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

	input := service.ProfileInput{}
	if name, ok := validated["name"].(string); ok {
		input.Name = &name
	}
	if organization, ok := validated["organization"].(string); ok {
		input.Organization = &organization
	}
	if country, ok := validated["country"].(string); ok {
		input.Country = &country
	}
	if consent, ok := validated["marketing_consent"].(bool); ok {
		input.MarketingConsent = &consent
	}

	client, err := h.svc.UpdateProfile(r.Context(), clientID, input)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, profileResponse(client))
}

// principalClientID reads the authenticated client id off the request
// context.
func principalClientID(r *http.Request) (uuid.UUID, error) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return uuid.Nil, apperrors.Unauthorized("", nil)
	}

	id, err := uuid.Parse(principal.PrincipalID())
	if err != nil {
		return uuid.Nil, apperrors.Unauthorized("", err)
	}
	return id, nil
}

// profileResponse renders the restricted self-service view of a client.
func profileResponse(client persistence.Client) map[string]any {
	return map[string]any{
		"id":                client.ID.String(),
		"name":              client.Name,
		"email":             client.Email,
		"organization":      client.Organization,
		"country":           client.Country,
		"marketing_consent": client.MarketingConsent,
		"updated_at":        client.UpdatedAt.UTC().Format(time.RFC3339),
		"deployment": map[string]any{
			"trial":          client.Deployment.Trial,
			"trial_end_date": client.Deployment.TrialEndDate,
			"domain":         client.Deployment.Domain,
		},
		"subscriptions": client.Subscriptions,
	}
}
