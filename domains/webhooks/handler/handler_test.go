package handler

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskradar/clients-api/domains/webhooks/service"
	"github.com/deskradar/clients-api/platform/validation"
)

type fakeService struct {
	alert *service.PaddleAlert
	err   error
}

func (f *fakeService) ProcessPaddleAlert(_ context.Context, alert service.PaddleAlert) error {
	f.alert = &alert
	return f.err
}

func newSigner(t *testing.T) (*rsa.PrivateKey, *validation.SignatureVerifier) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	pemData := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	verifier, err := validation.NewSignatureVerifier(pemData)
	require.NoError(t, err)

	return key, verifier
}

// signPayload reproduces Paddle's signing procedure: sort the fields, encode
// them in PHP serialize() format and sign with RSA-SHA1.
func signPayload(t *testing.T, key *rsa.PrivateKey, payload map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k == "p_signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	fmt.Fprintf(&sb, "a:%d:{", len(keys))
	for _, k := range keys {
		v := payload[k]
		fmt.Fprintf(&sb, `s:%d:"%s";s:%d:"%s";`, len(k), k, len(v), v)
	}
	sb.WriteString("}")

	digest := sha1.Sum([]byte(sb.String()))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(signature)
}

func postForm(t *testing.T, h *Handler, payload map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{}
	for k, v := range payload {
		form.Set(k, v)
	}

	req := httptest.NewRequest(http.MethodPost, "/paddle", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.Paddle(rec, req)
	return rec
}

func createdPayload(clientID string) map[string]string {
	passthrough, _ := json.Marshal(map[string]string{"client_id": clientID})
	return map[string]string{
		"alert_name":           "subscription_created",
		"status":               "active",
		"subscription_id":      "sub-1",
		"subscription_plan_id": "plan-1",
		"next_bill_date":       "2021-06-01",
		"cancel_url":           "https://paddle.test/cancel",
		"update_url":           "https://paddle.test/update",
		"passthrough":          string(passthrough),
	}
}

func TestPaddleDispatchesSignedAlert(t *testing.T) {
	t.Parallel()

	key, verifier := newSigner(t)
	svc := &fakeService{}
	h := New(svc, verifier, zap.NewNop())

	payload := createdPayload("3b5f8a52-3a51-41c5-9940-77a16c0de027")
	payload["p_signature"] = signPayload(t, key, payload)

	rec := postForm(t, h, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true}`, rec.Body.String())

	require.NotNil(t, svc.alert)
	require.Equal(t, "subscription_created", svc.alert.AlertName)
	require.Equal(t, "3b5f8a52-3a51-41c5-9940-77a16c0de027", svc.alert.ClientID)
	require.Equal(t, "sub-1", svc.alert.SubscriptionID)
	require.Equal(t, "2021-06-01", svc.alert.NextBillDate)
}

func TestPaddleRejectsTamperedPayload(t *testing.T) {
	t.Parallel()

	key, verifier := newSigner(t)
	svc := &fakeService{}
	h := New(svc, verifier, zap.NewNop())

	payload := createdPayload("3b5f8a52-3a51-41c5-9940-77a16c0de027")
	payload["p_signature"] = signPayload(t, key, payload)
	payload["status"] = "deleted"

	rec := postForm(t, h, payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `\"p_signature\" must be a valid signature`)
	require.Nil(t, svc.alert)
}

func TestPaddleRejectsUnsupportedAlert(t *testing.T) {
	t.Parallel()

	_, verifier := newSigner(t)
	svc := &fakeService{}
	h := New(svc, verifier, zap.NewNop())

	rec := postForm(t, h, map[string]string{"alert_name": "payment_refunded"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error   bool   `json:"error"`
		Name    string `json:"name"`
		Details []struct {
			Type    string   `json:"type"`
			Message string   `json:"message"`
			Path    []string `json:"path"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Error)
	require.Equal(t, "ValidationError", body.Name)
	require.Len(t, body.Details, 1)
	require.Equal(t, "any.allowOnly", body.Details[0].Type)
	require.Equal(t, `"alert_name" is invalid`, body.Details[0].Message)
}

func TestPaddleRejectsUnknownField(t *testing.T) {
	t.Parallel()

	key, verifier := newSigner(t)
	svc := &fakeService{}
	h := New(svc, verifier, zap.NewNop())

	payload := createdPayload("3b5f8a52-3a51-41c5-9940-77a16c0de027")
	payload["surprise"] = "x"
	payload["p_signature"] = signPayload(t, key, payload)

	rec := postForm(t, h, payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `\"surprise\" is not allowed`)
}
