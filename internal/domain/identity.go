package domain

import "strings"

// DefaultCountryCode is prepended to phone numbers that do not carry one.
const DefaultCountryCode = "+91"

// NormalizeEmail trims and case-folds an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims and case-folds a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizePhone converts a phone number into its canonical "+<digits>" form.
// Only digits are kept; countryCode is prepended when the digits do not
// already start with it. Input without any digit yields "".
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}

	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	countryDigits := strings.TrimPrefix(countryCode, "+")
	if !strings.HasPrefix(digits, countryDigits) {
		digits = countryDigits + digits
	}
	return "+" + digits
}

// LooksLikePhone reports whether s contains at least one digit and nothing
// but digits, spaces and the characters "+-().".
func LooksLikePhone(s string) bool {
	hasDigit := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == ' ' || r == '+' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return hasDigit
}
