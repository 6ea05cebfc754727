package validation

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T) (*SignatureVerifier, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	pemData := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	verifier, err := NewSignatureVerifier(pemData)
	require.NoError(t, err)

	return verifier, key
}

func signPayload(t *testing.T, key *rsa.PrivateKey, serialized string) string {
	t.Helper()

	digest := sha1.Sum([]byte(serialized))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, digest[:])
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(sig)
}

func TestPHPSerializePairs(t *testing.T) {
	t.Parallel()

	serialized := phpSerializePairs([]phpPair{
		{key: "alert_name", value: "subscription_created"},
		{key: "quantity", value: "1"},
	})
	require.Equal(t,
		`a:2:{s:10:"alert_name";s:20:"subscription_created";s:8:"quantity";s:1:"1";}`,
		serialized)
}

func TestSignatureVerifierAcceptsValidSignature(t *testing.T) {
	t.Parallel()

	verifier, key := newTestVerifier(t)

	// Keys must be sorted before serialization regardless of payload order.
	serialized := phpSerializePairs([]phpPair{
		{key: "alert_name", value: "subscription_created"},
		{key: "status", value: "active"},
	})
	signature := signPayload(t, key, serialized)

	payload := map[string]any{
		"status":      "active",
		"alert_name":  "subscription_created",
		"p_signature": signature,
	}
	require.True(t, verifier.Verify(payload, "p_signature", signature))
}

func TestSignatureVerifierRejectsTamperedPayload(t *testing.T) {
	t.Parallel()

	verifier, key := newTestVerifier(t)

	serialized := phpSerializePairs([]phpPair{
		{key: "alert_name", value: "subscription_created"},
	})
	signature := signPayload(t, key, serialized)

	payload := map[string]any{
		"alert_name":  "subscription_cancelled",
		"p_signature": signature,
	}
	require.False(t, verifier.Verify(payload, "p_signature", signature))
}

func TestSignatureVerifierRejectsMalformedBase64(t *testing.T) {
	t.Parallel()

	verifier, _ := newTestVerifier(t)

	payload := map[string]any{"alert_name": "subscription_created"}
	require.False(t, verifier.Verify(payload, "p_signature", "%%%not-base64%%%"))
}

func TestNewSignatureVerifierRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := NewSignatureVerifier([]byte("not a pem key"))
	require.Error(t, err)
}
