package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"whatsable-relay/internal/db"
	"whatsable-relay/internal/models"
	"whatsable-relay/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupSettingsRouter(svc *MockSettingsService) http.Handler {
	r := setupTestRouter()
	h := NewSettingsHandler(svc)
	r.GET("/settings", h.Get)
	r.POST("/settings", h.Save)
	r.POST("/settings/test-connection", h.TestConnection)
	r.GET("/settings/templates", h.Templates)
	return r
}

func TestSettingsHandler_Get(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("Get", mock.Anything, "u1").Return(&models.SettingsView{
		WhatsAbleAPIKey: models.MaskedAPIKey, PhoneColumnID: "phone", Settings: "{}", HasAPIKey: true,
	}, nil)

	w := performRequest(setupSettingsRouter(svc), http.MethodGet, "/settings", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"whatsableApiKey":"••••••••","defaultTemplate":"","phoneColumnId":"phone","settings":"{}","hasApiKey":true}`, w.Body.String())

	failing := new(MockSettingsService)
	failing.On("Get", mock.Anything, "u1").Return(nil, assert.AnError)
	w = performRequest(setupSettingsRouter(failing), http.MethodGet, "/settings", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSettingsHandler_Save(t *testing.T) {
	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		{name: "saved", expectedStatus: http.StatusOK, expectedBody: "Settings saved successfully"},
		{name: "invalid key", serviceErr: fmt.Errorf("%w: 401", services.ErrInvalidAPIKey), expectedStatus: http.StatusBadRequest, expectedBody: "Invalid WhatsAble API key"},
		{name: "invalid settings", serviceErr: services.ErrInvalidSettings, expectedStatus: http.StatusBadRequest, expectedBody: "Settings must be valid JSON"},
		{name: "store failure", serviceErr: assert.AnError, expectedStatus: http.StatusInternalServerError, expectedBody: "Failed to save settings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSettingsService)
			svc.On("Save", mock.Anything, "u1", "tok", &models.SaveSettingsRequest{
				WhatsAbleAPIKey: "key", DefaultTemplate: "welcome", PhoneColumnID: "mobile",
			}).Return(tt.serviceErr)

			w := performRequest(setupSettingsRouter(svc), http.MethodPost, "/settings", map[string]string{
				"whatsableApiKey": "key", "defaultTemplate": "welcome", "phoneColumnId": "mobile",
			})
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestSettingsHandler_SaveRejectsMalformedSettings(t *testing.T) {
	repo := db.NewSettingsRepository(db.SetupTestDB(t))
	r := setupTestRouter()
	h := NewSettingsHandler(services.NewSettingsService(repo, nil, "", ""))
	r.POST("/settings", h.Save)

	w := performRequest(r, http.MethodPost, "/settings", map[string]string{"settings": "not json"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Settings must be valid JSON"}`, w.Body.String())

	stored, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSettingsHandler_TestConnection(t *testing.T) {
	tests := []struct {
		name           string
		message        string
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		{name: "ok", message: "API connection successful", expectedStatus: http.StatusOK, expectedBody: "API connection successful"},
		{name: "no key", serviceErr: services.ErrAPIKeyRequired, expectedStatus: http.StatusBadRequest, expectedBody: "API key required for testing"},
		{name: "provider failure", serviceErr: fmt.Errorf("%w: boom", services.ErrConnectionFailed), expectedStatus: http.StatusBadRequest, expectedBody: "Connection test failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSettingsService)
			svc.On("TestConnection", mock.Anything, "key", "+14155552671").Return(tt.message, tt.serviceErr)

			w := performRequest(setupSettingsRouter(svc), http.MethodPost, "/settings/test-connection", map[string]string{
				"whatsableApiKey": "key", "testPhone": "+14155552671",
			})
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestSettingsHandler_Templates(t *testing.T) {
	svc := new(MockSettingsService)
	svc.On("Templates", mock.Anything, "u1").Return(json.RawMessage(`[{"name":"welcome"}]`), nil)

	w := performRequest(setupSettingsRouter(svc), http.MethodGet, "/settings/templates", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"templates":[{"name":"welcome"}]}`, w.Body.String())

	noKey := new(MockSettingsService)
	noKey.On("Templates", mock.Anything, "u1").Return(nil, services.ErrProviderKeyMissing)
	w = performRequest(setupSettingsRouter(noKey), http.MethodGet, "/settings/templates", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
