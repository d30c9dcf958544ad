// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "US"

const matchKeyLength = 10

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// FormatOutbound prepares a number for the US-only provider flow: a leading
// "+1" followed by the stripped national digits. Numbers that already parse
// as valid are formatted through E.164 instead.
func FormatOutbound(input string) string {
	normalized := NormalizeE164(input)
	if strings.HasPrefix(normalized, "+") && normalized[1:] == Digits(normalized) {
		return normalized
	}

	digits := Digits(normalized)
	if len(digits) > matchKeyLength {
		digits = digits[len(digits)-matchKeyLength:]
	}
	return "+1" + digits
}

// MatchKey builds the fuzzy-match key for inbound reconciliation: all
// non-digit characters stripped, truncated to the trailing ten digits.
// North American numbering is assumed; a leading country code falls off.
func MatchKey(input string) string {
	digits := Digits(input)
	if len(digits) > matchKeyLength {
		return digits[len(digits)-matchKeyLength:]
	}
	return digits
}

// Digits strips every non-digit character from the input.
func Digits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
