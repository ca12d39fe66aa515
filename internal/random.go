package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
)

// SessionID is a 128-bit random session identifier.
type SessionID [16]byte

const rememberSecretSize = 32

// NewSessionID returns a fresh random session identifier.
func NewSessionID() (SessionID, error) {
	var sid SessionID
	_, err := rand.Read(sid[:])
	return sid, err
}

// Bytes returns the raw identifier bytes.
func (s SessionID) Bytes() []byte {
	return s[:]
}

func (s SessionID) String() string {
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(s[:])
}

// ParseSessionID decodes the wire form produced by String.
func ParseSessionID(sessionID string) (SessionID, error) {
	var sid SessionID

	raw, err := base64.RawURLEncoding.DecodeString(sessionID)
	if err != nil {
		return sid, err
	}
	if len(raw) != len(sid) {
		return sid, errors.New("invalid session id size")
	}

	copy(sid[:], raw)
	return sid, nil
}

// NewRememberSecret returns the random secret behind a remembered-device
// token. The client only ever sees the encoded secret; the server stores
// its hash.
func NewRememberSecret() ([rememberSecretSize]byte, error) {
	var secret [rememberSecretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

// EncodeRememberToken produces the opaque client-side token value. It
// carries no structure a client could decode into device or timestamp
// fields.
func EncodeRememberToken(secret [rememberSecretSize]byte) string {
	return base64.RawURLEncoding.EncodeToString(secret[:])
}

// DecodeRememberToken reverses EncodeRememberToken.
func DecodeRememberToken(token string) ([rememberSecretSize]byte, error) {
	var secret [rememberSecretSize]byte

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return secret, err
	}
	if len(raw) != rememberSecretSize {
		return secret, errors.New("invalid remember token size")
	}

	copy(secret[:], raw)
	return secret, nil
}

// HashRememberSecret is the server-side storage form of a remember secret.
func HashRememberSecret(secret [rememberSecretSize]byte) [32]byte {
	return sha256.Sum256(secret[:])
}

// HashBindingValue hashes a client binding value (fingerprint, user id)
// into a fixed-width form suitable for constant-time comparison.
func HashBindingValue(v string) [32]byte {
	return sha256.Sum256([]byte(v))
}
