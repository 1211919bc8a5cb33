package privacy

import "strings"

// MaskName redacts the interior of a patient name for public display.
// Operates on runes so multi-byte names (Hangul, CJK) mask per character.
func MaskName(name string) string {
	r := []rune(name)
	switch {
	case len(r) <= 1:
		return name
	case len(r) == 2:
		return string(r[0]) + "*"
	default:
		return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
	}
}

// MaskPhone hides all but the last 3 characters of a phone number. Numbers
// shorter than 7 characters are returned unchanged.
func MaskPhone(phone string) string {
	r := []rune(phone)
	if len(r) < 7 {
		return phone
	}
	return strings.Repeat("*", len(r)-3) + string(r[len(r)-3:])
}
