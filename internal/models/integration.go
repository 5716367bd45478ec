package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexibleID accepts Monday ids sent either as JSON numbers or strings
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}

// String returns the id as a string
func (f FlexibleID) String() string {
	return string(f)
}

// TriggerKind selects the default message wording for an integration action
type TriggerKind string

const (
	TriggerItemCreated   TriggerKind = "create"
	TriggerItemUpdated   TriggerKind = "update"
	TriggerColumnChanged TriggerKind = "column_change"
	TriggerTemplate      TriggerKind = "template"
)

// InputFields are the recipe fields Monday posts to an integration action
type InputFields struct {
	ItemID        FlexibleID        `json:"itemId"`
	BoardID       FlexibleID        `json:"boardId"`
	ColumnID      string            `json:"columnId"`
	CustomMessage string            `json:"customMessage"`
	TemplateName  string            `json:"templateName"`
	Variables     map[string]string `json:"variables"`
}

// IntegrationRequest is the envelope of an integration action call
type IntegrationRequest struct {
	Payload struct {
		InputFields InputFields `json:"inputFields"`
	} `json:"payload"`
}

// IntegrationResponse is returned after a successful send
type IntegrationResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}
