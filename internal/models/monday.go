package models

// MondayUser is the `me` query result
type MondayUser struct {
	ID      FlexibleID `json:"id"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Account *struct {
		ID FlexibleID `json:"id"`
	} `json:"account,omitempty"`
}

// Board is the item's parent board
type Board struct {
	ID   FlexibleID `json:"id"`
	Name string     `json:"name"`
}

// ColumnValue is one cell of an item
type ColumnValue struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Text  *string `json:"text"`
	Value *string `json:"value"` // raw JSON string as returned by the API
	Type  string  `json:"type,omitempty"`
}

// TextValue returns the display text or "" when null
func (c ColumnValue) TextValue() string {
	if c.Text == nil {
		return ""
	}
	return *c.Text
}

// RawValue returns the raw JSON value or "" when null
func (c ColumnValue) RawValue() string {
	if c.Value == nil {
		return ""
	}
	return *c.Value
}

// Item is a Monday board item with the fields the relay reads
type Item struct {
	ID           FlexibleID    `json:"id"`
	Name         string        `json:"name"`
	ColumnValues []ColumnValue `json:"column_values"`
	Board        Board         `json:"board"`
}

// Column returns the column with the given id, if present
func (i *Item) Column(id string) (ColumnValue, bool) {
	for _, col := range i.ColumnValues {
		if col.ID == id {
			return col, true
		}
	}
	return ColumnValue{}, false
}
