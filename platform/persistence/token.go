package persistence

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	tokenLength   = 64
)

// NewToken returns a 64 character random token drawn from a 62 symbol
// alphabet, using a cryptographic source.
func NewToken() (string, error) {
	max := big.NewInt(int64(len(tokenAlphabet)))

	buf := make([]byte, tokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
