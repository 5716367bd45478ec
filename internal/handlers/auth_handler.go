package handlers

import (
	"net/http"

	"whatsable-relay/internal/config"
	"whatsable-relay/pkg/logger"
	"whatsable-relay/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler completes the Monday OAuth flow
type AuthHandler struct {
	config *config.Config
	oauth  OAuthClient
	tokens TokenStore
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config, oauth OAuthClient, tokens TokenStore) *AuthHandler {
	return &AuthHandler{config: cfg, oauth: oauth, tokens: tokens}
}

// Callback handles GET /auth/callback?code=&state=. The code is exchanged for
// an access token which is stored and wrapped in a session token.
func (h *AuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code required"})
		return
	}

	ctx := c.Request.Context()
	tok, err := h.oauth.ExchangeCode(ctx, h.config.Monday.ClientID, h.config.Monday.ClientSecret, code)
	if err != nil {
		logger.Error("OAuth code exchange failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		return
	}

	me, err := h.oauth.GetMe(ctx, tok.AccessToken)
	if err != nil {
		logger.Error("Failed to load Monday user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		return
	}

	userID := me.ID.String()
	accountID := ""
	if me.Account != nil {
		accountID = me.Account.ID.String()
	}

	if err := h.tokens.UpsertToken(ctx, userID, tok.AccessToken); err != nil {
		logger.Error("Failed to store Monday token", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		return
	}

	sessionToken, err := middleware.GenerateSessionToken(userID, accountID, me.Email, tok.AccessToken,
		h.config.JWT.SigningSecret, h.config.JWT.SessionExpiry)
	if err != nil {
		logger.Error("Failed to issue session token", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication failed"})
		return
	}

	logger.Info("Monday user authorized", zap.String("user_id", userID), zap.String("account_id", accountID))
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"sessionToken": sessionToken,
		"user":         me,
	})
}
