package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/domains/clients/service"
	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/persistence"
	"github.com/deskradar/clients-api/platform/validation"
	"github.com/deskradar/clients-api/platform/web"
)

var (
	domainPattern     = regexp.MustCompile(`^[a-z0-9]+$`)
	appVersionPattern = regexp.MustCompile(`^(?:0|[1-9]\d?)\.(?:0|[1-9]\d?)\.(?:0|[1-9]\d?)(?:-dev)?$`)
)

func deploymentSchema() *validation.Schema {
	return validation.Object(
		validation.String("status").
			OneOf(persistence.StatusNonExistent, persistence.StatusActive, persistence.StatusSuspended).
			Message("is invalid").
			Required(),
		validation.String("domain").
			Min(3).Message("is too short").
			Max(32).Message("is too long").
			Regex(domainPattern).Message("is invalid").
			Required(),
		validation.String("app_version").Regex(appVersionPattern).Message("is invalid").Required(),
		validation.Boolean("trial").Required(),
		validation.Date("trial_end_date").Required(),
		validation.String("node").Allow("").Hostname().Max(32).Message("is too long").Required(),
		validation.String("ipaddress").Allow("").IPv4().Message("must be a valid IP address").Required(),
		validation.Number("ssh_port").
			Min(1).Message("must be a valid port number").
			Max(65535).Message("must be a valid port number").
			Required(),
		validation.Date("deployed_at"),
	)
}

func clientSchema() *validation.Schema {
	return validation.Object(
		validation.String("name").Max(140).Message("is too long").Required(),
		validation.String("email").Email().Required(),
		validation.Boolean("email_confirmed").Required(),
		validation.String("organization").Max(140).Message("is too long").Required(),
		validation.String("country").Country().Required(),
		validation.Boolean("consent").Required(),
		validation.Boolean("marketing_consent").Required(),
		validation.Boolean("approved").Required(),
		validation.NestedObject("deployment", deploymentSchema()).Required(),
		validation.Array("subscriptions").Required(),
	)
}

// Handler exposes the admin client management routes.
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
	return &Handler{svc: svc, logger: logger, schema: clientSchema()}
}

// Routes mounts the client management endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{client_id}", h.Get)
	r.Put("/{client_id}", h.Edit)
	r.Delete("/{client_id}", h.Delete)
	r.Put("/{client_id}/deploy", h.Deploy)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeInput(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	client, err := h.svc.Create(r.Context(), input)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusCreated, ClientResponse(client))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.List(r.Context())
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	response := make([]map[string]any, 0, len(clients))
	for _, client := range clients {
		response = append(response, ClientResponse(client))
	}
	web.RespondJSON(w, http.StatusOK, response)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	client, err := h.svc.Get(r.Context(), id)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, ClientResponse(client))
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	input, err := h.decodeInput(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	client, err := h.svc.Edit(r.Context(), id, input)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, ClientResponse(client))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.NoContent(w)
}

func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	id, err := clientID(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	if err := h.svc.Deploy(r.Context(), id); err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) decodeInput(r *http.Request) (service.ClientInput, error) {
	payload, err := web.DecodeJSON(r)
	if err != nil {
		return service.ClientInput{}, err
	}

	validated, err := h.schema.Validate(payload)
	if err != nil {
		return service.ClientInput{}, err
	}

	deployment := validated["deployment"].(map[string]any)
	input := service.ClientInput{
		Name:             validated["name"].(string),
		Email:            validated["email"].(string),
		EmailConfirmed:   validated["email_confirmed"].(bool),
		Organization:     validated["organization"].(string),
		Country:          validated["country"].(string),
		Consent:          validated["consent"].(bool),
		MarketingConsent: validated["marketing_consent"].(bool),
		Approved:         validated["approved"].(bool),
		Deployment: service.DeploymentInput{
			Status:       deployment["status"].(string),
			Domain:       deployment["domain"].(string),
			AppVersion:   deployment["app_version"].(string),
			Trial:        deployment["trial"].(bool),
			TrialEndDate: deployment["trial_end_date"].(time.Time),
			Node:         deployment["node"].(string),
			IPAddress:    deployment["ipaddress"].(string),
			SSHPort:      int(deployment["ssh_port"].(float64)),
		},
	}
	if deployedAt, ok := deployment["deployed_at"].(time.Time); ok {
		input.Deployment.DeployedAt = &deployedAt
	}

	subscriptions, err := decodeSubscriptions(validated["subscriptions"])
	if err != nil {
		return service.ClientInput{}, err
	}
	input.Subscriptions = subscriptions

	return input, nil
}

// decodeSubscriptions converts the schema-validated array into typed
// subscription entries.
func decodeSubscriptions(value any) ([]persistence.Subscription, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var subscriptions []persistence.Subscription
	if err := json.Unmarshal(raw, &subscriptions); err != nil {
		return nil, apperrors.Validation(apperrors.FieldError{
			Type:    "array.base",
			Message: `"subscriptions" must be an array of subscription objects`,
			Path:    []string{"subscriptions"},
		})
	}
	if subscriptions == nil {
		subscriptions = []persistence.Subscription{}
	}
	return subscriptions, nil
}

// clientID parses the path parameter. A malformed id reads as an unknown
// client.
func clientID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "client_id"))
	if err != nil {
		return uuid.Nil, apperrors.NotFound("client")
	}
	return id, nil
}

// ClientResponse renders the full admin view of a client.
func ClientResponse(client persistence.Client) map[string]any {
	return map[string]any{
		"id":                client.ID.String(),
		"name":              client.Name,
		"email":             client.Email,
		"email_confirmed":   client.EmailConfirmed,
		"organization":      client.Organization,
		"country":           client.Country,
		"consent":           client.Consent,
		"marketing_consent": client.MarketingConsent,
		"approved":          client.Approved,
		"created_at":        client.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":        client.UpdatedAt.UTC().Format(time.RFC3339),
		"deployment":        client.Deployment,
		"subscriptions":     client.Subscriptions,
	}
}
