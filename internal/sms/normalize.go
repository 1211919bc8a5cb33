package sms

import "strings"

// Digits strips everything but ASCII digits from a raw phone input.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone converts a Korean mobile number to E.164-ish form: strip
// non-digits, then replace the 010 trunk prefix with +82 (dropping the leading
// zero). Anything else passes through as bare digits. This is a best-effort
// normalizer, not a validator.
func NormalizePhone(raw string) string {
	digits := Digits(raw)
	if strings.HasPrefix(digits, "010") {
		return "+82" + digits[1:]
	}
	return digits
}
