package services

import (
	"context"
	"encoding/json"

	"whatsable-relay/internal/models"
	"whatsable-relay/internal/whatsable"
)

// MondayAPI is the part of the Monday client the services use
type MondayAPI interface {
	GetItem(ctx context.Context, token, itemID string) (*models.Item, error)
	CreateUpdate(ctx context.Context, token, itemID, body string) (string, error)
}

// MessagingAPI is the part of the WhatsAble client the services use
type MessagingAPI interface {
	SendMessage(ctx context.Context, apiKey, phone, message string) (*whatsable.SendResponse, error)
	SendTemplateMessage(ctx context.Context, apiKey, phone, template string, variables map[string]string) (*whatsable.SendResponse, error)
	GetTemplates(ctx context.Context, apiKey string) (json.RawMessage, error)
}
