package models

import "time"

// MaskedAPIKey is returned in place of a stored provider key and recognised on save
const MaskedAPIKey = "••••••••"

// DefaultPhoneColumnID is the Monday column consulted first when a user has not picked one
const DefaultPhoneColumnID = "phone"

// UserSettings is the per-user configuration row (one row per Monday user)
type UserSettings struct {
	UserID          string  `json:"user_id"`
	MondayToken     string  `json:"-"`
	WhatsAbleAPIKey *string `json:"-"` // ciphertext when an encryption key is configured
	DefaultTemplate *string `json:"default_template,omitempty"`
	PhoneColumnID   string  `json:"phone_column_id"`
	Settings        string  `json:"settings"`
	CreatedAt       int64   `json:"created_at"`
	UpdatedAt       int64   `json:"updated_at"`
}

// NewUserSettings returns a settings row carrying the defaults used by the store
func NewUserSettings(userID, mondayToken string) *UserSettings {
	now := time.Now().Unix()
	return &UserSettings{
		UserID:        userID,
		MondayToken:   mondayToken,
		PhoneColumnID: DefaultPhoneColumnID,
		Settings:      "{}",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// HasAPIKey reports whether a provider key is stored
func (s *UserSettings) HasAPIKey() bool {
	return s != nil && s.WhatsAbleAPIKey != nil && *s.WhatsAbleAPIKey != ""
}

// SettingsView is the settings page representation; the API key is never echoed back
type SettingsView struct {
	WhatsAbleAPIKey string `json:"whatsableApiKey"`
	DefaultTemplate string `json:"defaultTemplate"`
	PhoneColumnID   string `json:"phoneColumnId"`
	Settings        string `json:"settings"`
	HasAPIKey       bool   `json:"hasApiKey"`
}

// SaveSettingsRequest is the body of POST /settings
type SaveSettingsRequest struct {
	WhatsAbleAPIKey string `json:"whatsableApiKey"`
	DefaultTemplate string `json:"defaultTemplate"`
	PhoneColumnID   string `json:"phoneColumnId"`
	Settings        string `json:"settings"`
}

// TestConnectionRequest is the body of POST /settings/test-connection
type TestConnectionRequest struct {
	WhatsAbleAPIKey string `json:"whatsableApiKey"`
	TestPhone       string `json:"testPhone"`
}
