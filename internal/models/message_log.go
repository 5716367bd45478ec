package models

// Direction of a relayed message
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// Delivery statuses written to the message log
const (
	StatusSent     = "sent"
	StatusReceived = "received"
	StatusFailed   = "failed"
)

// MessageLog is one append-only audit row
type MessageLog struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	Direction Direction `json:"direction"`
	ItemID    *string   `json:"item_id,omitempty"`
	BoardID   *string   `json:"board_id,omitempty"`
	MessageID *string   `json:"message_id,omitempty"`
	Status    string    `json:"status"`
	CreatedAt int64     `json:"created_at"`
}

// StringPtr returns nil for "" so optional columns stay NULL
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
