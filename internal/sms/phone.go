package sms

import "strings"

// DefaultCountryCode is prefixed to local numbers; Burkina Faso by default.
const DefaultCountryCode = "+226"

// cleanPhone strips every character except digits and a leading +.
func cleanPhone(phone string) string {
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidatePhoneNumber reports whether phone holds 8 to 15 significant
// characters once formatting noise is stripped.
func ValidatePhoneNumber(phone string) bool {
	cleaned := cleanPhone(phone)
	return len(cleaned) >= 8 && len(cleaned) <= 15
}

// FormatPhoneNumber normalizes phone to international format. Numbers without
// a leading + get their leading zeros dropped and the country code prefixed.
func FormatPhoneNumber(phone, countryCode string) string {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	cleaned := cleanPhone(phone)
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	cleaned = strings.TrimLeft(cleaned, "0")
	return countryCode + cleaned
}
