package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	secretService = "sanctum"
	secretAccount = "api_token"
)

// Keychain abstracts the local secret store for testing.
type Keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

type secretsKeychain struct{}

// NewKeychain returns the secrets-file-backed secret store.
func NewKeychain() Keychain {
	return secretsKeychain{}
}

func (secretsKeychain) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (secretsKeychain) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}

// GetAPIToken reads the local API bearer token from the secret store.
func GetAPIToken(kc Keychain) (string, error) {
	token, err := kc.Get(secretService, secretAccount)
	if err != nil {
		return "", fmt.Errorf("API token not found; run `sanctum serve` once to generate it: %w", err)
	}
	if token == "" {
		return "", fmt.Errorf("API token is empty; run `sanctum serve` once to regenerate it")
	}
	return token, nil
}

// EnsureAPIToken generates and stores a bearer token if one does not exist,
// and returns the current token.
func EnsureAPIToken(kc Keychain) (string, error) {
	if token, err := kc.Get(secretService, secretAccount); err == nil && token != "" {
		return token, nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating API token: %w", err)
	}
	token := hex.EncodeToString(raw)

	if err := kc.Set(secretService, secretAccount, token); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return token, nil
}
