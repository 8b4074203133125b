package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateSecureCode returns n random bytes encoded as URL-safe base64.
func GenerateSecureCode(n int) (string, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
