package utils

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyPrefix marks public API bearer tokens so they are recognizable in
// logs and support tickets without revealing the secret part.
const APIKeyPrefix = "pg_"

// Generate Random String (hex, for session ids and API keys)
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateAPIKey creates a new opaque public API bearer token
func GenerateAPIKey() (string, error) {
	token, err := GenerateRandomToken(24)
	if err != nil {
		return "", err
	}
	return APIKeyPrefix + token, nil
}

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPasswordHash compares a plaintext password with a bcrypt hash
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
