package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"whatsable-relay/internal/models"
	"whatsable-relay/internal/monday"
	"whatsable-relay/internal/services"
	"whatsable-relay/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
)

type MockRelayService struct {
	mock.Mock
}

func (m *MockRelayService) Send(ctx context.Context, req *services.SendRequest) (*models.IntegrationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IntegrationResponse), args.Error(1)
}

type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) HandleEvent(ctx context.Context, evt *models.WhatsAbleWebhook) (*services.WebhookResult, error) {
	args := m.Called(ctx, evt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.WebhookResult), args.Error(1)
}

type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Get(ctx context.Context, userID string) (*models.SettingsView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettingsView), args.Error(1)
}

func (m *MockSettingsService) Save(ctx context.Context, userID, mondayToken string, req *models.SaveSettingsRequest) error {
	args := m.Called(ctx, userID, mondayToken, req)
	return args.Error(0)
}

func (m *MockSettingsService) TestConnection(ctx context.Context, apiKey, testPhone string) (string, error) {
	args := m.Called(ctx, apiKey, testPhone)
	return args.String(0), args.Error(1)
}

func (m *MockSettingsService) Templates(ctx context.Context, userID string) (json.RawMessage, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type MockOAuthClient struct {
	mock.Mock
}

func (m *MockOAuthClient) ExchangeCode(ctx context.Context, clientID, clientSecret, code string) (*monday.TokenResponse, error) {
	args := m.Called(ctx, clientID, clientSecret, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monday.TokenResponse), args.Error(1)
}

func (m *MockOAuthClient) GetMe(ctx context.Context, token string) (*models.MondayUser, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MondayUser), args.Error(1)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) UpsertToken(ctx context.Context, userID, mondayToken string) error {
	args := m.Called(ctx, userID, mondayToken)
	return args.Error(0)
}

// setupTestRouter returns an engine whose requests look authenticated as user u1
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, "u1")
		c.Set(middleware.ContextMondayToken, "tok")
		c.Next()
	})
	return r
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
