package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown device or a wrong key.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// KeyVerifier checks device keys against bcrypt hashes.
type KeyVerifier struct {
	hashes map[string]string
	cost   int
}

// NewKeyVerifier takes device id to bcrypt hash pairs.
func NewKeyVerifier(hashes map[string]string, cost int) *KeyVerifier {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	copied := make(map[string]string, len(hashes))
	for id, h := range hashes {
		copied[id] = h
	}
	return &KeyVerifier{hashes: copied, cost: cost}
}

// Hash converts a plain device key into a bcrypt hash suitable for config.
func (v *KeyVerifier) Hash(key string) (string, error) {
	if key == "" {
		return "", errors.New("auth: empty device key")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), v.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports ErrInvalidCredentials unless key matches the device's hash.
func (v *KeyVerifier) Verify(deviceID, key string) error {
	hash, ok := v.hashes[deviceID]
	if !ok || key == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
