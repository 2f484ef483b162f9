package auth

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // SSHA is defined over SHA-1; we verify existing directory hashes.
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	// SSHATag prefixes every supported stored credential.
	SSHATag = "{SSHA}"

	sshaDigestLen   = sha1.Size
	defaultSaltSize = 8
)

var (
	// ErrUnsupportedAlgorithm is returned when the stored credential is not {SSHA}.
	ErrUnsupportedAlgorithm = errors.New("unsupported credential algorithm")
	// ErrMalformedCredential is returned when the {SSHA} payload cannot be decoded.
	ErrMalformedCredential = errors.New("malformed credential")
)

// VerifyPassword checks candidate against a stored {SSHA} credential.
// A false result with nil error is a plain mismatch; a non-nil error means the
// stored value could not be checked at all. Callers treat both as denial.
func VerifyPassword(stored, candidate string) (bool, error) {
	if !strings.HasPrefix(stored, SSHATag) {
		return false, ErrUnsupportedAlgorithm
	}

	payload, err := decodeSSHAPayload(stored[len(SSHATag):])
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrMalformedCredential, err)
	}
	if len(payload) < sshaDigestLen {
		return false, fmt.Errorf("%w: payload is %d bytes", ErrMalformedCredential, len(payload))
	}

	expected := payload[:sshaDigestLen]
	salt := payload[sshaDigestLen:]
	computed := sshaDigest(candidate, salt)

	return subtle.ConstantTimeCompare(expected, computed) == 1, nil
}

// EncodeSSHA builds "{SSHA}" + base64(SHA1(password||salt) || salt).
func EncodeSSHA(password string, salt []byte) string {
	buf := make([]byte, 0, sshaDigestLen+len(salt))
	buf = append(buf, sshaDigest(password, salt)...)
	buf = append(buf, salt...)
	return SSHATag + base64.StdEncoding.EncodeToString(buf)
}

// HashPassword encodes password with a fresh random salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, defaultSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return EncodeSSHA(password, salt), nil
}

func sshaDigest(password string, salt []byte) []byte {
	h := sha1.New() //nolint:gosec // see import note
	h.Write([]byte(password))
	h.Write(salt)
	return h.Sum(nil)
}

// decodeSSHAPayload accepts padded and unpadded standard base64,
// both of which appear in directory dumps.
func decodeSSHAPayload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
