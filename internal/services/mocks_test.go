package services

import (
	"context"
	"encoding/json"
	"testing"

	"whatsable-relay/internal/db"
	"whatsable-relay/internal/models"
	"whatsable-relay/internal/whatsable"

	"github.com/stretchr/testify/mock"
)

type MockMondayAPI struct {
	mock.Mock
}

func (m *MockMondayAPI) GetItem(ctx context.Context, token, itemID string) (*models.Item, error) {
	args := m.Called(ctx, token, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Item), args.Error(1)
}

func (m *MockMondayAPI) CreateUpdate(ctx context.Context, token, itemID, body string) (string, error) {
	args := m.Called(ctx, token, itemID, body)
	return args.String(0), args.Error(1)
}

type MockMessagingAPI struct {
	mock.Mock
}

func (m *MockMessagingAPI) SendMessage(ctx context.Context, apiKey, phone, message string) (*whatsable.SendResponse, error) {
	args := m.Called(ctx, apiKey, phone, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*whatsable.SendResponse), args.Error(1)
}

func (m *MockMessagingAPI) SendTemplateMessage(ctx context.Context, apiKey, phone, template string, variables map[string]string) (*whatsable.SendResponse, error) {
	args := m.Called(ctx, apiKey, phone, template, variables)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*whatsable.SendResponse), args.Error(1)
}

func (m *MockMessagingAPI) GetTemplates(ctx context.Context, apiKey string) (json.RawMessage, error) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type testStores struct {
	settings db.SettingsRepository
	mappings db.PhoneMappingRepository
	logs     db.MessageLogRepository
}

func setupTestStores(t *testing.T) testStores {
	database := db.SetupTestDB(t)
	return testStores{
		settings: db.NewSettingsRepository(database),
		mappings: db.NewPhoneMappingRepository(database),
		logs:     db.NewMessageLogRepository(database),
	}
}

func testItem() *models.Item {
	return &models.Item{
		ID:   "100",
		Name: "Acme Lead",
		ColumnValues: []models.ColumnValue{
			{ID: "name", Text: models.StringPtr("Acme Lead")},
			{ID: "phone", Text: models.StringPtr("+1 (415) 555-2671"), Type: "phone"},
			{ID: "status", Text: models.StringPtr("Won"), Type: "status"},
		},
		Board: models.Board{ID: "1", Name: "Sales"},
	}
}
