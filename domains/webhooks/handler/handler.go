package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/domains/webhooks/service"
	"github.com/deskradar/clients-api/platform/apperrors"
	"github.com/deskradar/clients-api/platform/validation"
	"github.com/deskradar/clients-api/platform/web"
)

// Paddle posts form-encoded payloads where every scalar arrives as a string;
// the schemas reflect that. https://paddle.com/docs/subscriptions-event-reference/
func alertSchemas(verifier *validation.SignatureVerifier) map[string]*validation.Schema {
	passthrough := func() *validation.ObjectField {
		return validation.NestedObject("passthrough", validation.Object(
			validation.String("client_id").Required(),
		)).Required()
	}
	signature := func() *validation.StringField {
		return validation.String("p_signature").Signature(verifier).Required()
	}

	return map[string]*validation.Schema{
		service.AlertSubscriptionCreated: validation.Object(
			validation.String("alert_id"),
			validation.String("alert_name"),
			validation.String("cancel_url").URI(),
			validation.String("checkout_id"),
			validation.String("currency"),
			validation.String("email"),
			validation.String("event_time"),
			validation.String("marketing_consent").Allow(""),
			validation.String("next_bill_date"),
			signature(),
			passthrough(),
			validation.String("quantity"),
			validation.String("status"),
			validation.String("subscription_id"),
			validation.String("subscription_plan_id"),
			validation.String("unit_price"),
			validation.String("update_url").URI(),
		),
		service.AlertSubscriptionUpdated: validation.Object(
			validation.String("alert_id"),
			validation.String("alert_name"),
			validation.String("cancel_url").URI(),
			validation.String("checkout_id"),
			validation.String("email"),
			validation.String("event_time"),
			validation.String("marketing_consent").Allow(""),
			validation.String("new_price"),
			validation.String("new_quantity"),
			validation.String("new_unit_price"),
			validation.String("next_bill_date"),
			validation.String("old_price"),
			validation.String("old_quantity"),
			validation.String("old_unit_price"),
			validation.String("old_next_bill_date"),
			validation.String("old_status"),
			validation.String("old_subscription_plan_id"),
			signature(),
			passthrough(),
			validation.String("status"),
			validation.String("subscription_id"),
			validation.String("subscription_plan_id"),
			validation.String("update_url").URI(),
		),
		service.AlertSubscriptionCancelled: validation.Object(
			validation.String("alert_id"),
			validation.String("alert_name"),
			validation.String("cancellation_effective_date"),
			validation.String("checkout_id"),
			validation.String("email"),
			validation.String("event_time"),
			validation.String("marketing_consent").Allow(""),
			signature(),
			passthrough(),
			validation.String("quantity"),
			validation.String("status"),
			validation.String("subscription_id"),
			validation.String("subscription_plan_id"),
			validation.String("unit_price"),
			validation.String("user_id"),
		),
		service.AlertSubscriptionPaymentSucceeded: validation.Object(
			validation.String("alert_id"),
			validation.String("alert_name"),
			validation.String("balance_currency"),
			validation.String("balance_earnings"),
			validation.String("balance_fee"),
			validation.String("balance_gross"),
			validation.String("balance_tax"),
			validation.String("checkout_id"),
			validation.String("country"),
			validation.String("coupon").Allow(""),
			validation.String("currency"),
			validation.String("customer_name").Allow(""),
			validation.String("earnings"),
			validation.String("email"),
			validation.String("event_time"),
			validation.String("fee"),
			validation.String("initial_payment").Allow(""),
			validation.String("instalments").Allow(""),
			validation.String("marketing_consent").Allow(""),
			validation.String("next_bill_date"),
			validation.String("order_id"),
			signature(),
			passthrough(),
			validation.String("payment_method"),
			validation.String("payment_tax"),
			validation.String("plan_name"),
			validation.String("quantity"),
			validation.String("receipt_url").URI(),
			validation.String("sale_gross"),
			validation.String("status"),
			validation.String("subscription_id"),
			validation.String("subscription_plan_id"),
			validation.String("unit_price"),
			validation.String("user_id"),
		),
	}
}

// Handler exposes the billing webhook routes.
type Handler struct {
	svc     service.Service
	logger  *zap.Logger
	schemas map[string]*validation.Schema
}

func New(svc service.Service, verifier *validation.SignatureVerifier, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("webhooks service is required")
	}
	if verifier == nil {
		panic("signature verifier is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger, schemas: alertSchemas(verifier)}
}

// Routes mounts the webhook endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/paddle", h.Paddle)
	r.Get("/logs", h.Logs)
}

func (h *Handler) Paddle(w http.ResponseWriter, r *http.Request) {
	payload, err := web.DecodeForm(r)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	alertName, _ := payload["alert_name"].(string)
	schema, supported := h.schemas[alertName]
	if !supported {
		apperrors.Write(w, r, h.logger, apperrors.Validation(apperrors.FieldError{
			Type:    "any.allowOnly",
			Message: `"alert_name" is invalid`,
			Path:    []string{"alert_name"},
		}))
		return
	}

	validated, err := schema.Validate(payload)
	if err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	passthrough, _ := validated["passthrough"].(map[string]any)
	clientID, _ := passthrough["client_id"].(string)

	alert := service.PaddleAlert{
		AlertName:                 alertName,
		ClientID:                  clientID,
		Status:                    stringField(validated, "status"),
		SubscriptionID:            stringField(validated, "subscription_id"),
		PlanID:                    stringField(validated, "subscription_plan_id"),
		NextBillDate:              stringField(validated, "next_bill_date"),
		CancellationEffectiveDate: stringField(validated, "cancellation_effective_date"),
		CancelURL:                 stringField(validated, "cancel_url"),
		UpdateURL:                 stringField(validated, "update_url"),
		Payload:                   payload,
	}

	if err := h.svc.ProcessPaddleAlert(r.Context(), alert); err != nil {
		apperrors.Write(w, r, h.logger, err)
		return
	}

	web.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Logs is a placeholder: webhook logs are written for auditing but not yet
// served through the API.
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func stringField(values map[string]any, key string) string {
	value, _ := values[key].(string)
	return value
}
