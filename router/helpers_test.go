package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"whatsable-relay/internal/config"
	"whatsable-relay/internal/db"
	"whatsable-relay/internal/handlers"
	"whatsable-relay/internal/monday"
	"whatsable-relay/internal/services"
	"whatsable-relay/internal/whatsable"
	"whatsable-relay/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

// fakeMonday serves one item and records the updates posted to it
type fakeMonday struct {
	mu      sync.Mutex
	updates []map[string]interface{}
}

func (f *fakeMonday) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch {
		case strings.Contains(req.Query, "create_update"):
			f.mu.Lock()
			f.updates = append(f.updates, req.Variables)
			f.mu.Unlock()
			w.Write([]byte(`{"data":{"create_update":{"id":"upd-1"}}}`))
		case strings.Contains(req.Query, "items"):
			w.Write([]byte(`{"data":{"items":[{"id":"100","name":"Acme Lead",
				"column_values":[{"id":"phone","text":"+1 415 555 2671","value":null,"type":"phone"}],
				"board":{"id":"1","name":"Sales"}}]}}`))
		default:
			w.Write([]byte(`{"data":{"me":{"id":42,"name":"Ada","email":"ada@example.com"}}}`))
		}
	}
}

func (f *fakeMonday) posted() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.updates...)
}

// fakeWhatsAble accepts sends and lists one template
type fakeWhatsAble struct {
	mu    sync.Mutex
	sends []map[string]interface{}
}

func (f *fakeWhatsAble) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/templates" {
			w.Write([]byte(`[{"name":"welcome"}]`))
			return
		}
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.sends = append(f.sends, body)
		f.mu.Unlock()
		w.Write([]byte(`{"messageId":"wa-1"}`))
	}
}

type testEnv struct {
	router    *Router
	cfg       *config.Config
	monday    *fakeMonday
	whatsable *fakeWhatsAble
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fm := &fakeMonday{}
	mondaySrv := httptest.NewServer(fm.handler(t))
	t.Cleanup(mondaySrv.Close)

	fw := &fakeWhatsAble{}
	waSrv := httptest.NewServer(fw.handler(t))
	t.Cleanup(waSrv.Close)

	cfg := config.DefaultConfig()
	cfg.JWT.SigningSecret = testSecret
	cfg.WhatsAble.APIKey = "server-key"
	cfg.Security.MaxBodyBytes = 4096

	database := db.SetupTestDB(t)
	settingsRepo := db.NewSettingsRepository(database)
	mappingRepo := db.NewPhoneMappingRepository(database)
	logRepo := db.NewMessageLogRepository(database)

	mondayClient := monday.NewClient(mondaySrv.URL, mondaySrv.URL)
	waClient := whatsable.NewClient(waSrv.URL)

	h := Handlers{
		Auth:        handlers.NewAuthHandler(cfg, mondayClient, settingsRepo),
		Integration: handlers.NewIntegrationHandler(services.NewRelayService(settingsRepo, mappingRepo, logRepo, mondayClient, waClient, cfg.WhatsAble.APIKey, "")),
		Webhook:     handlers.NewWebhookHandler(services.NewWebhookService(mappingRepo, logRepo, mondayClient)),
		Settings:    handlers.NewSettingsHandler(services.NewSettingsService(settingsRepo, waClient, cfg.WhatsAble.APIKey, "")),
	}

	return &testEnv{
		router:    NewRouter(cfg, h, database),
		cfg:       cfg,
		monday:    fm,
		whatsable: fw,
	}
}

func (e *testEnv) sessionToken(t *testing.T) string {
	token, err := middleware.GenerateSessionToken("42", "7", "ada@example.com", "monday-token", e.cfg.JWT.SigningSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
