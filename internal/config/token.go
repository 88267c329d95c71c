package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

const (
	keychainService = "prefs"
	tokenAccount    = "server_token"
)

// keychainStore reads and writes the platform secret store: the macOS
// Keychain via the security CLI, or a 0600 JSON file elsewhere.
type keychainStore struct{}

func (keychainStore) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (keychainStore) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}

// EnsureToken returns the bearer token for `prefs serve`, generating and
// saving one to the platform secret store on first use.
// PREFS_SERVER_TOKEN takes precedence and is never persisted.
func EnsureToken() (string, error) {
	return ensureToken(keychainStore{})
}

func ensureToken(kc keychain) (string, error) {
	if tok := os.Getenv("PREFS_SERVER_TOKEN"); tok != "" {
		return tok, nil
	}
	if tok, err := kc.Get(keychainService, tokenAccount); err == nil && tok != "" {
		return tok, nil
	}

	tok := uuid.New().String()
	if err := kc.Set(keychainService, tokenAccount, tok); err != nil {
		return "", fmt.Errorf("saving server token: %w", err)
	}
	return tok, nil
}
