package handlers

import (
	"net/http"

	"whatsable-relay/internal/models"
	"whatsable-relay/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives WhatsAble events
type WebhookHandler struct {
	webhooks WebhookServiceInterface
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhooks WebhookServiceInterface) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// WhatsAble handles POST /webhooks/whatsable
func (h *WebhookHandler) WhatsAble(c *gin.Context) {
	var evt models.WhatsAbleWebhook
	if !bindJSON(c, &evt) {
		return
	}

	if _, err := h.webhooks.HandleEvent(c.Request.Context(), &evt); err != nil {
		logger.Error("Webhook processing failed", zap.String("type", evt.Type), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
