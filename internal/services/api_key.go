package services

import (
	"fmt"

	"whatsable-relay/internal/models"
	"whatsable-relay/pkg/utils"
)

// apiKeys seals provider keys before they reach the store and opens them on the way out.
// Without an encryption key values are stored as given.
type apiKeys struct {
	encryptionKey string
	fallback      string
}

func (k apiKeys) seal(plain string) (string, error) {
	if k.encryptionKey == "" {
		return plain, nil
	}
	sealed, err := utils.EncryptSecret(plain, k.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt API key: %w", err)
	}
	return sealed, nil
}

func (k apiKeys) open(stored string) (string, error) {
	if k.encryptionKey == "" || stored == "" {
		return stored, nil
	}
	plain, err := utils.DecryptSecret(stored, k.encryptionKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt API key: %w", err)
	}
	return plain, nil
}

// resolve returns the user's own key, else the configured fallback, else ErrProviderKeyMissing
func (k apiKeys) resolve(s *models.UserSettings) (string, error) {
	if s.HasAPIKey() {
		return k.open(*s.WhatsAbleAPIKey)
	}
	if k.fallback != "" {
		return k.fallback, nil
	}
	return "", ErrProviderKeyMissing
}
