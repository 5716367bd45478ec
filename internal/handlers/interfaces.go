package handlers

import (
	"context"
	"encoding/json"

	"whatsable-relay/internal/models"
	"whatsable-relay/internal/monday"
	"whatsable-relay/internal/services"
)

// RelayServiceInterface sends outbound messages for integration actions
type RelayServiceInterface interface {
	Send(ctx context.Context, req *services.SendRequest) (*models.IntegrationResponse, error)
}

// WebhookServiceInterface processes provider events
type WebhookServiceInterface interface {
	HandleEvent(ctx context.Context, evt *models.WhatsAbleWebhook) (*services.WebhookResult, error)
}

// SettingsServiceInterface backs the settings page
type SettingsServiceInterface interface {
	Get(ctx context.Context, userID string) (*models.SettingsView, error)
	Save(ctx context.Context, userID, mondayToken string, req *models.SaveSettingsRequest) error
	TestConnection(ctx context.Context, apiKey, testPhone string) (string, error)
	Templates(ctx context.Context, userID string) (json.RawMessage, error)
}

// OAuthClient is the part of the Monday client used by the OAuth callback
type OAuthClient interface {
	ExchangeCode(ctx context.Context, clientID, clientSecret, code string) (*monday.TokenResponse, error)
	GetMe(ctx context.Context, token string) (*models.MondayUser, error)
}

// TokenStore keeps the latest access token per user
type TokenStore interface {
	UpsertToken(ctx context.Context, userID, mondayToken string) error
}
