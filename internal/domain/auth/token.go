package auth

import (
	"crypto/rand"
	"fmt"
)

const (
	// TokenLength is the number of characters in an issued token.
	TokenLength = 50

	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// Largest multiple of len(tokenAlphabet) that fits in a byte; bytes above it are
	// rejected to keep the selection uniform.
	tokenRejectAbove = 256 - 256%len(tokenAlphabet)
)

// GenerateToken returns a fresh opaque token drawn uniformly from [A-Za-z0-9].
func GenerateToken() (string, error) {
	out := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength+TokenLength/4)

	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= tokenRejectAbove {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}

	return string(out), nil
}
