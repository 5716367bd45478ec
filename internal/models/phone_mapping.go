package models

// PhoneMapping remembers which item a phone number was last messaged about,
// so replies from that number can be posted back to the item.
// Unique per (Phone, UserID); the latest send wins.
type PhoneMapping struct {
	ID          string `json:"id"`
	Phone       string `json:"phone"` // normalized "+<digits>"
	ItemID      string `json:"item_id"`
	BoardID     string `json:"board_id"`
	UserID      string `json:"user_id"`
	MondayToken string `json:"-"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}
