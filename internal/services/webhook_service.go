package services

import (
	"context"
	"fmt"
	"strings"

	"whatsable-relay/internal/db"
	"whatsable-relay/internal/models"
	"whatsable-relay/pkg/logger"
	"whatsable-relay/pkg/utils"

	"go.uber.org/zap"
)

// ReplyPrefix starts every comment posted for a customer reply
const ReplyPrefix = "📱 WhatsApp Reply: "

// redeliveryWindow is how many recent log rows are searched for a repeated message id
const redeliveryWindow = 50

// WebhookResult describes what was done with a provider event
type WebhookResult struct {
	Logged    bool   `json:"logged"`
	Forwarded bool   `json:"forwarded"`
	Duplicate bool   `json:"duplicate,omitempty"`
	ItemID    string `json:"itemId,omitempty"`
	UpdateID  string `json:"updateId,omitempty"`
}

// WebhookService records provider events and routes customer replies back to Monday
type WebhookService struct {
	mappings db.PhoneMappingRepository
	logs     db.MessageLogRepository
	monday   MondayAPI
}

// NewWebhookService creates a WebhookService
func NewWebhookService(mappings db.PhoneMappingRepository, logs db.MessageLogRepository, mondayAPI MondayAPI) *WebhookService {
	return &WebhookService{mappings: mappings, logs: logs, monday: mondayAPI}
}

// HandleEvent logs the event and, for inbound messages from a known phone,
// posts the reply as an update on the item that phone was last messaged from.
// Events without a usable phone are acknowledged without side effects.
func (s *WebhookService) HandleEvent(ctx context.Context, evt *models.WhatsAbleWebhook) (*WebhookResult, error) {
	result := &WebhookResult{}
	if evt == nil {
		return result, nil
	}

	phone := utils.NormalizePhone(evt.Phone)
	if phone == "" {
		logger.Warn("Ignoring webhook without a valid phone", zap.String("type", evt.Type))
		return result, nil
	}

	if evt.IsInbound() && evt.MessageID != "" {
		seen, err := s.alreadyReceived(ctx, phone, evt.MessageID)
		if err != nil {
			return nil, err
		}
		if seen {
			logger.Info("Ignoring redelivered webhook", zap.String("message_id", evt.MessageID))
			result.Duplicate = true
			return result, nil
		}
	}

	var mapping *models.PhoneMapping
	if evt.IsInbound() {
		var err error
		mapping, err = s.mappings.FindLatestByPhone(ctx, phone)
		if err != nil {
			return nil, err
		}
	}

	entry := &models.MessageLog{
		Phone:     phone,
		Message:   evt.Message,
		Direction: models.DirectionOutgoing,
		MessageID: models.StringPtr(evt.MessageID),
		Status:    eventStatus(evt),
	}
	if evt.IsInbound() {
		entry.Direction = models.DirectionIncoming
	}
	if mapping != nil {
		entry.ItemID = models.StringPtr(mapping.ItemID)
		entry.BoardID = models.StringPtr(mapping.BoardID)
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		return nil, err
	}
	result.Logged = true

	if mapping == nil {
		if evt.IsInbound() {
			logger.Info("No item mapped for inbound phone", zap.String("message_id", evt.MessageID))
		}
		return result, nil
	}
	if strings.TrimSpace(evt.Message) == "" {
		return result, nil
	}

	updateID, err := s.monday.CreateUpdate(ctx, mapping.MondayToken, mapping.ItemID, ReplyPrefix+evt.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to post reply to item %s: %w", mapping.ItemID, err)
	}

	result.Forwarded = true
	result.ItemID = mapping.ItemID
	result.UpdateID = updateID

	logger.Info("Reply forwarded to Monday",
		zap.String("item_id", mapping.ItemID),
		zap.String("user_id", mapping.UserID),
		zap.String("update_id", updateID),
	)
	return result, nil
}

// alreadyReceived reports whether an inbound message with this provider id was logged recently
func (s *WebhookService) alreadyReceived(ctx context.Context, phone, messageID string) (bool, error) {
	recent, err := s.logs.ListByPhone(ctx, phone, redeliveryWindow)
	if err != nil {
		return false, err
	}
	for _, entry := range recent {
		if entry.Direction == models.DirectionIncoming && entry.MessageID != nil && *entry.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func eventStatus(evt *models.WhatsAbleWebhook) string {
	if evt.IsInbound() {
		return models.StatusReceived
	}
	if evt.Status != "" {
		return evt.Status
	}
	if evt.Type != "" {
		return evt.Type
	}
	return models.StatusSent
}
