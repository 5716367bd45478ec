package handlers

import (
	"errors"
	"net/http"

	"whatsable-relay/internal/models"
	"whatsable-relay/internal/services"
	"whatsable-relay/pkg/logger"
	"whatsable-relay/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SettingsHandler serves the per-user settings page
type SettingsHandler struct {
	settings SettingsServiceInterface
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get handles GET /settings
func (h *SettingsHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	view, err := h.settings.Get(c.Request.Context(), userID)
	if err != nil {
		logger.Error("Settings fetch failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settings"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Save handles POST /settings
func (h *SettingsHandler) Save(c *gin.Context) {
	var req models.SaveSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	userID := middleware.UserID(c)
	err := h.settings.Save(c.Request.Context(), userID, middleware.MondayToken(c), &req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Settings saved successfully"})
	case errors.Is(err, services.ErrInvalidAPIKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid WhatsAble API key"})
	case errors.Is(err, services.ErrInvalidSettings):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Settings must be valid JSON"})
	default:
		logger.Error("Settings save failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
	}
}

// TestConnection handles POST /settings/test-connection
func (h *SettingsHandler) TestConnection(c *gin.Context) {
	var req models.TestConnectionRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.settings.TestConnection(c.Request.Context(), req.WhatsAbleAPIKey, req.TestPhone)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
	case errors.Is(err, services.ErrAPIKeyRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "API key required for testing"})
	default:
		logger.Warn("Connection test failed", zap.String("user_id", middleware.UserID(c)), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Connection test failed"})
	}
}

// Templates handles GET /settings/templates
func (h *SettingsHandler) Templates(c *gin.Context) {
	userID := middleware.UserID(c)
	templates, err := h.settings.Templates(c.Request.Context(), userID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"templates": templates})
	case errors.Is(err, services.ErrProviderKeyMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": "WhatsAble API key not configured"})
	default:
		logger.Error("Template listing failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates"})
	}
}
