package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"whatsable-relay/internal/db"
	"whatsable-relay/internal/models"
	"whatsable-relay/pkg/logger"

	"go.uber.org/zap"
)

// TestMessage is sent by a connection test that names a phone
const TestMessage = "🧪 Test message from WhatsAble Monday.com integration"

var (
	// ErrInvalidAPIKey means the provider rejected a newly entered key
	ErrInvalidAPIKey = errors.New("invalid whatsable API key")

	// ErrAPIKeyRequired means a connection test was asked for without a key
	ErrAPIKeyRequired = errors.New("API key required for testing")

	// ErrInvalidSettings means the free-form settings blob is not JSON
	ErrInvalidSettings = errors.New("settings must be valid JSON")

	// ErrConnectionFailed wraps any provider failure during a connection test
	ErrConnectionFailed = errors.New("connection test failed")
)

// SettingsService manages the per-user settings page
type SettingsService struct {
	repo     db.SettingsRepository
	whatsapp MessagingAPI
	keys     apiKeys
}

// NewSettingsService creates a SettingsService
func NewSettingsService(repo db.SettingsRepository, whatsapp MessagingAPI, defaultAPIKey, encryptionKey string) *SettingsService {
	return &SettingsService{
		repo:     repo,
		whatsapp: whatsapp,
		keys:     apiKeys{encryptionKey: encryptionKey, fallback: defaultAPIKey},
	}
}

// Get returns the user's settings with the API key masked
func (s *SettingsService) Get(ctx context.Context, userID string) (*models.SettingsView, error) {
	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &models.SettingsView{
		PhoneColumnID: models.DefaultPhoneColumnID,
		Settings:      "{}",
	}
	if stored == nil {
		return view, nil
	}

	if stored.HasAPIKey() {
		view.WhatsAbleAPIKey = models.MaskedAPIKey
		view.HasAPIKey = true
	}
	if stored.DefaultTemplate != nil {
		view.DefaultTemplate = *stored.DefaultTemplate
	}
	if stored.PhoneColumnID != "" {
		view.PhoneColumnID = stored.PhoneColumnID
	}
	if stored.Settings != "" {
		view.Settings = stored.Settings
	}
	return view, nil
}

// Save stores the settings. A new key is checked against the provider first;
// an empty or masked key leaves the stored key untouched.
func (s *SettingsService) Save(ctx context.Context, userID, mondayToken string, req *models.SaveSettingsRequest) error {
	if req == nil {
		return errors.New("settings are required")
	}
	if req.Settings != "" && !json.Valid([]byte(req.Settings)) {
		return ErrInvalidSettings
	}

	settings := &models.UserSettings{
		UserID:          userID,
		MondayToken:     mondayToken,
		DefaultTemplate: models.StringPtr(req.DefaultTemplate),
		PhoneColumnID:   req.PhoneColumnID,
		Settings:        req.Settings,
	}

	// the OAuth callback owns the stored token; a request token only fills an empty slot
	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if stored != nil && stored.MondayToken != "" {
		settings.MondayToken = ""
	}

	updateKey := isNewAPIKey(req.WhatsAbleAPIKey)
	if updateKey {
		if _, err := s.whatsapp.GetTemplates(ctx, req.WhatsAbleAPIKey); err != nil {
			logger.Warn("Rejected WhatsAble API key", zap.String("user_id", userID), zap.Error(err))
			return fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
		}
		sealed, err := s.keys.seal(req.WhatsAbleAPIKey)
		if err != nil {
			return err
		}
		settings.WhatsAbleAPIKey = &sealed
	}

	if err := s.repo.Upsert(ctx, settings, updateKey); err != nil {
		return err
	}

	logger.Info("Settings saved", zap.String("user_id", userID), zap.Bool("api_key_updated", updateKey))
	return nil
}

// TestConnection checks a key by sending a test message when a phone is given,
// otherwise by listing templates. It returns the message shown to the user.
func (s *SettingsService) TestConnection(ctx context.Context, apiKey, testPhone string) (string, error) {
	if !isNewAPIKey(apiKey) {
		return "", ErrAPIKeyRequired
	}

	if testPhone != "" {
		if _, err := s.whatsapp.SendMessage(ctx, apiKey, testPhone, TestMessage); err != nil {
			return "", fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
		return "Test message sent successfully", nil
	}

	if _, err := s.whatsapp.GetTemplates(ctx, apiKey); err != nil {
		return "", fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return "API connection successful", nil
}

// Templates lists the provider templates available with the user's key
func (s *SettingsService) Templates(ctx context.Context, userID string) (json.RawMessage, error) {
	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	apiKey, err := s.keys.resolve(stored)
	if err != nil {
		return nil, err
	}
	return s.whatsapp.GetTemplates(ctx, apiKey)
}

func isNewAPIKey(key string) bool {
	return key != "" && key != models.MaskedAPIKey
}
