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

// IntegrationHandler serves the Monday integration recipe actions
type IntegrationHandler struct {
	relay RelayServiceInterface
}

// NewIntegrationHandler creates a new integration handler
func NewIntegrationHandler(relay RelayServiceInterface) *IntegrationHandler {
	return &IntegrationHandler{relay: relay}
}

// SendOnCreate handles POST /integration/send-on-create
func (h *IntegrationHandler) SendOnCreate(c *gin.Context) {
	h.send(c, models.TriggerItemCreated)
}

// SendOnUpdate handles POST /integration/send-on-update
func (h *IntegrationHandler) SendOnUpdate(c *gin.Context) {
	h.send(c, models.TriggerItemUpdated)
}

// SendOnColumnChange handles POST /integration/send-on-column-change
func (h *IntegrationHandler) SendOnColumnChange(c *gin.Context) {
	h.send(c, models.TriggerColumnChanged)
}

// SendTemplate handles POST /integration/send-template
func (h *IntegrationHandler) SendTemplate(c *gin.Context) {
	h.send(c, models.TriggerTemplate)
}

func (h *IntegrationHandler) send(c *gin.Context, trigger models.TriggerKind) {
	var body models.IntegrationRequest
	if !bindJSON(c, &body) {
		return
	}

	in := body.Payload.InputFields
	if in.ItemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId is required"})
		return
	}

	resp, err := h.relay.Send(c.Request.Context(), &services.SendRequest{
		UserID:        middleware.UserID(c),
		MondayToken:   middleware.MondayToken(c),
		ItemID:        in.ItemID.String(),
		BoardID:       in.BoardID.String(),
		Trigger:       trigger,
		CustomMessage: in.CustomMessage,
		TemplateName:  in.TemplateName,
		ColumnID:      in.ColumnID,
		Variables:     in.Variables,
	})
	if err != nil {
		status, msg := integrationError(err)
		if status == http.StatusInternalServerError {
			logger.Error("Integration action failed",
				zap.String("trigger", string(trigger)),
				zap.String("item_id", in.ItemID.String()),
				zap.Error(err),
			)
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func integrationError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrProviderKeyMissing):
		return http.StatusBadRequest, "WhatsAble API key not configured"
	case errors.Is(err, services.ErrItemNotFound):
		return http.StatusNotFound, "Item not found"
	case errors.Is(err, services.ErrPhoneNotFound):
		return http.StatusBadRequest, "No phone number found in item"
	case errors.Is(err, services.ErrTemplateRequired):
		return http.StatusBadRequest, "templateName is required"
	default:
		return http.StatusInternalServerError, "Failed to send WhatsApp message"
	}
}
