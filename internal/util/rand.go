package util

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex generates a secure random hex string covering n bytes of entropy.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
