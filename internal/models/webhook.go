package models

// EventMessageReceived is the only provider event that is routed back to Monday
const EventMessageReceived = "message_received"

// WhatsAbleWebhook is the body WhatsAble posts to /webhooks/whatsable
type WhatsAbleWebhook struct {
	Type      string     `json:"type"`
	Phone     string     `json:"phone"`
	Message   string     `json:"message"`
	Timestamp FlexibleID `json:"timestamp"`
	MessageID string     `json:"messageId"`
	Status    string     `json:"status"`
}

// IsInbound reports whether the event is a customer reply
func (w *WhatsAbleWebhook) IsInbound() bool {
	return w.Type == EventMessageReceived
}
