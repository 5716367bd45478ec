package services

import (
	"context"
	"errors"
	"fmt"

	"whatsable-relay/internal/db"
	"whatsable-relay/internal/models"
	"whatsable-relay/internal/monday"
	"whatsable-relay/internal/whatsable"
	"whatsable-relay/pkg/logger"

	"go.uber.org/zap"
)

var (
	// ErrProviderKeyMissing means neither the user nor the server has a WhatsAble key
	ErrProviderKeyMissing = errors.New("whatsable API key not configured")

	// ErrItemNotFound means the item does not exist or is not visible to the token
	ErrItemNotFound = errors.New("item not found")

	// ErrPhoneNotFound means no column of the item holds a valid phone number
	ErrPhoneNotFound = errors.New("no phone number found in item")

	// ErrTemplateRequired means a template send was asked for without a template name
	ErrTemplateRequired = errors.New("template name is required")
)

// SendRequest is one outbound integration action
type SendRequest struct {
	UserID        string
	MondayToken   string
	ItemID        string
	BoardID       string
	Trigger       models.TriggerKind
	CustomMessage string
	TemplateName  string
	ColumnID      string
	Variables     map[string]string
}

// RelayService sends WhatsApp messages for Monday items and remembers who was messaged
type RelayService struct {
	settings db.SettingsRepository
	mappings db.PhoneMappingRepository
	logs     db.MessageLogRepository
	monday   MondayAPI
	whatsapp MessagingAPI
	keys     apiKeys
}

// NewRelayService creates a RelayService. defaultAPIKey is used for users who
// have not stored a key of their own.
func NewRelayService(
	settings db.SettingsRepository,
	mappings db.PhoneMappingRepository,
	logs db.MessageLogRepository,
	mondayAPI MondayAPI,
	whatsapp MessagingAPI,
	defaultAPIKey, encryptionKey string,
) *RelayService {
	return &RelayService{
		settings: settings,
		mappings: mappings,
		logs:     logs,
		monday:   mondayAPI,
		whatsapp: whatsapp,
		keys:     apiKeys{encryptionKey: encryptionKey, fallback: defaultAPIKey},
	}
}

// Send runs the outbound pipeline: settings, key, item, phone, compose, send, record
func (s *RelayService) Send(ctx context.Context, req *SendRequest) (*models.IntegrationResponse, error) {
	if req == nil || req.UserID == "" || req.ItemID == "" {
		return nil, errors.New("user ID and item ID are required")
	}

	settings, err := s.settings.Get(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	apiKey, err := s.keys.resolve(settings)
	if err != nil {
		return nil, err
	}

	item, err := s.monday.GetItem(ctx, req.MondayToken, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item: %w", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	preferredColumn := models.DefaultPhoneColumnID
	if settings != nil && settings.PhoneColumnID != "" {
		preferredColumn = settings.PhoneColumnID
	}
	phone := monday.ExtractPhoneNumber(item, preferredColumn)
	if phone == "" {
		return nil, ErrPhoneNotFound
	}

	template := req.TemplateName
	if template == "" && req.CustomMessage == "" && settings != nil && settings.DefaultTemplate != nil {
		template = *settings.DefaultTemplate
	}
	if req.Trigger == models.TriggerTemplate && template == "" {
		return nil, ErrTemplateRequired
	}

	boardID := item.Board.ID.String()
	if boardID == "" {
		boardID = req.BoardID
	}

	var (
		message string
		resp    *whatsable.SendResponse
		sendErr error
	)
	if template != "" {
		message = "Template: " + template
		resp, sendErr = s.whatsapp.SendTemplateMessage(ctx, apiKey, phone, template, templateVariables(item, req))
	} else {
		message = composeMessage(item, req)
		resp, sendErr = s.whatsapp.SendMessage(ctx, apiKey, phone, message)
	}
	if sendErr != nil {
		logger.Error("Failed to send WhatsApp message",
			zap.String("user_id", req.UserID),
			zap.String("item_id", req.ItemID),
			zap.Error(sendErr),
		)
		failed := &models.MessageLog{
			Phone:     phone,
			Message:   message,
			Direction: models.DirectionOutgoing,
			ItemID:    models.StringPtr(item.ID.String()),
			BoardID:   models.StringPtr(boardID),
			Status:    models.StatusFailed,
		}
		if err := s.logs.Append(ctx, failed); err != nil {
			logger.Warn("Failed to record failed send", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to send message: %w", sendErr)
	}
	messageID := resp.ProviderMessageID()

	previous, err := s.mappings.FindByPhoneAndUser(ctx, phone, req.UserID)
	if err != nil {
		return nil, err
	}
	if previous != nil && previous.ItemID != item.ID.String() {
		logger.Info("Replies for phone move to a new item",
			zap.String("user_id", req.UserID),
			zap.String("previous_item_id", previous.ItemID),
			zap.String("item_id", item.ID.String()),
		)
	}

	// the mapping is what routes the recipient's reply back to this item
	if err := s.mappings.Upsert(ctx, &models.PhoneMapping{
		Phone:       phone,
		ItemID:      item.ID.String(),
		BoardID:     boardID,
		UserID:      req.UserID,
		MondayToken: replyToken(settings, req.MondayToken),
	}); err != nil {
		return nil, err
	}

	entry := &models.MessageLog{
		Phone:     phone,
		Message:   message,
		Direction: models.DirectionOutgoing,
		ItemID:    models.StringPtr(item.ID.String()),
		BoardID:   models.StringPtr(boardID),
		Status:    models.StatusSent,
	}
	if messageID != "" {
		entry.MessageID = models.StringPtr(messageID)
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		return nil, err
	}

	logger.Info("WhatsApp message sent",
		zap.String("user_id", req.UserID),
		zap.String("item_id", item.ID.String()),
		zap.String("trigger", string(req.Trigger)),
		zap.Bool("template", template != ""),
		zap.String("message_id", messageID),
	)

	return &models.IntegrationResponse{
		Success:   true,
		MessageID: messageID,
		Phone:     phone,
		Message:   message,
	}, nil
}

// replyToken picks the token stored for posting replies later. Tokens on
// integration calls expire within minutes, so the OAuth token wins when saved.
func replyToken(settings *models.UserSettings, requestToken string) string {
	if settings != nil && settings.MondayToken != "" {
		return settings.MondayToken
	}
	return requestToken
}

// composeMessage returns the custom text, or the default wording for the trigger
func composeMessage(item *models.Item, req *SendRequest) string {
	if req.CustomMessage != "" {
		return req.CustomMessage
	}

	switch req.Trigger {
	case models.TriggerColumnChanged:
		columnID, text := "Column", "New value"
		if col, ok := item.Column(req.ColumnID); ok {
			columnID = col.ID
			if col.TextValue() != "" {
				text = col.TextValue()
			}
		}
		return fmt.Sprintf("%s - %s updated to: %s", item.Name, columnID, text)
	case models.TriggerItemUpdated:
		return fmt.Sprintf("Item updated: %s in board %s", item.Name, item.Board.Name)
	default:
		return fmt.Sprintf("New item created: %s in board %s", item.Name, item.Board.Name)
	}
}

// templateVariables fills the standard variables; caller variables override them
func templateVariables(item *models.Item, req *SendRequest) map[string]string {
	vars := map[string]string{
		"item_name":      item.Name,
		"board_name":     item.Board.Name,
		"custom_message": req.CustomMessage,
	}
	if req.ColumnID != "" {
		vars["column_id"] = req.ColumnID
		if col, ok := item.Column(req.ColumnID); ok {
			vars["column_value"] = col.TextValue()
		}
	}
	for k, v := range req.Variables {
		vars[k] = v
	}
	return vars
}
