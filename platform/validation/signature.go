package validation

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"sort"
)

// SignatureVerifier checks Paddle-style webhook signatures: the payload minus
// the signature field is PHP-serialized with lexicographically sorted keys and
// the result verified as an RSA-SHA1 signature against the vendor public key.
type SignatureVerifier struct {
	publicKey *rsa.PublicKey
}

// NewSignatureVerifier parses a PEM-encoded RSA public key.
func NewSignatureVerifier(pemData []byte) (*SignatureVerifier, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("signature verifier: no PEM block found in public key")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("signature verifier: parse public key: %w", err)
	}

	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("signature verifier: unsupported public key type %T", parsed)
	}

	return &SignatureVerifier{publicKey: rsaKey}, nil
}

// Verify reports whether signature is a valid base64-encoded RSA-SHA1
// signature over payload with signatureField removed. Non-string payload
// values are rendered with their default string form, matching the sender
// which signs the raw form fields.
func (v *SignatureVerifier) Verify(payload map[string]any, signatureField, signature string) bool {
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		if key == signatureField {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]phpPair, 0, len(keys))
	for _, key := range keys {
		value, ok := payload[key].(string)
		if !ok {
			value = fmt.Sprint(payload[key])
		}
		pairs = append(pairs, phpPair{key: key, value: value})
	}

	digest := sha1.Sum([]byte(phpSerializePairs(pairs)))
	return rsa.VerifyPKCS1v15(v.publicKey, crypto.SHA1, digest[:], raw) == nil
}
