package monday

import (
	"encoding/json"
	"strings"

	"whatsable-relay/internal/models"
	"whatsable-relay/pkg/utils"
)

// PhoneColumnPatterns are matched case-insensitively against column ids and titles
var PhoneColumnPatterns = []string{"phone", "whatsapp", "mobile", "contact", "telephone", "cell"}

// ExtractPhoneNumber finds the item's phone number. The preferred column is
// tried first, then any column whose id or title looks like a phone column.
// Returns "" when no column yields a valid number.
func ExtractPhoneNumber(item *models.Item, preferredColumn string) string {
	if item == nil {
		return ""
	}

	if preferredColumn != "" {
		if col, ok := item.Column(preferredColumn); ok {
			if phone := columnPhone(col); phone != "" {
				return phone
			}
		}
	}

	for _, col := range item.ColumnValues {
		if !looksLikePhoneColumn(col) {
			continue
		}
		if phone := columnPhone(col); phone != "" {
			return phone
		}
	}
	return ""
}

func looksLikePhoneColumn(col models.ColumnValue) bool {
	id := strings.ToLower(col.ID)
	title := strings.ToLower(col.Title)
	for _, p := range PhoneColumnPatterns {
		if strings.Contains(id, p) || (title != "" && strings.Contains(title, p)) {
			return true
		}
	}
	return false
}

func columnPhone(col models.ColumnValue) string {
	raw := col.TextValue()
	if strings.TrimSpace(raw) == "" {
		raw = phoneFromValue(col.RawValue())
	}
	if raw == "" {
		raw = col.RawValue()
	}
	return utils.NormalizePhone(raw)
}

// phoneFromValue reads the "phone" field of a phone column's JSON value
func phoneFromValue(value string) string {
	if value == "" {
		return ""
	}
	var v struct {
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return ""
	}
	return v.Phone
}
