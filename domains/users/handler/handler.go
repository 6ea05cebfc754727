package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/domains/users/service"
	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/persistence"
	"github.com/deskradar/clients-api/platform/validation"
	"github.com/deskradar/clients-api/platform/web"
)

func userSchema() *validation.Schema {
	return validation.Object(
		validation.String("name").Max(140).Message("is too long").Required(),
		validation.String("email").Email().Required(),
		validation.String("role").OneOf("admin").Required(),
	)
}

// Handler exposes the admin user management routes.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
	schema *validation.Schema
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("users service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger, schema: userSchema()}
}

// Routes mounts the user management endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{user_id}", h.Get)
	r.Put("/{user_id}", h.Edit)
	r.Delete("/{user_id}", h.Delete)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeInput(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Create(r.Context(), input)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusCreated, userResponse(user))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	response := make([]map[string]any, 0, len(users))
	for _, user := range users {
		response = append(response, userResponse(user))
	}
	web.RespondJSON(w, http.StatusOK, response)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, userResponse(user))
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	input, err := h.decodeInput(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	user, err := h.svc.Edit(r.Context(), id, input)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, userResponse(user))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
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

func (h *Handler) decodeInput(r *http.Request) (service.UserInput, error) {
	payload, err := web.DecodeJSON(r)
	if err != nil {
		return service.UserInput{}, err
	}

	validated, err := h.schema.Validate(payload)
	if err != nil {
		return service.UserInput{}, err
	}

	return service.UserInput{
		Name:  validated["name"].(string),
		Email: validated["email"].(string),
		Role:  validated["role"].(string),
	}, nil
}

// userID parses the path parameter. A malformed id reads as an unknown user.
func userID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		return uuid.Nil, apperrors.NotFound("user")
	}
	return id, nil
}

func userResponse(user persistence.User) map[string]any {
	return map[string]any{
		"id":         user.ID.String(),
		"name":       user.Name,
		"email":      user.Email,
		"role":       user.Role,
		"created_at": user.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at": user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
