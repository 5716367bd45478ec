package utils

import (
	"regexp"
	"strings"
)

// MinPhoneDigits is the shortest digit run accepted as a phone number
const MinPhoneDigits = 7

var (
	nonDigit     = regexp.MustCompile(`\D`)
	validPhoneRe = regexp.MustCompile(`^\+\d{7,15}$`)
)

// FormatPhoneNumber reduces raw input to "+<digits>". Inputs with fewer than
// MinPhoneDigits digits yield "". Applying it twice gives the same result.
func FormatPhoneNumber(phone string) string {
	digits := CleanPhoneForStorage(phone)
	if len(digits) < MinPhoneDigits {
		return ""
	}
	return "+" + digits
}

// IsValidPhoneNumber checks the international "+<7-15 digits>" form
func IsValidPhoneNumber(phone string) bool {
	return validPhoneRe.MatchString(phone)
}

// CleanPhoneForStorage strips everything but digits
func CleanPhoneForStorage(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return ""
	}
	return nonDigit.ReplaceAllString(phone, "")
}

// NormalizePhone formats and validates in one step, returning "" when the
// result is not a usable phone number.
func NormalizePhone(phone string) string {
	formatted := FormatPhoneNumber(phone)
	if !IsValidPhoneNumber(formatted) {
		return ""
	}
	return formatted
}
