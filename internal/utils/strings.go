package utils

import (
	"regexp"
	"strings"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9\s\-()]+$`)

// IsValidPhoneNumber checks digits with optional leading plus, spaces,
// dashes and parentheses
func IsValidPhoneNumber(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaskEmail masks the local part of an email address
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	localPart := parts[0]
	domain := parts[1]

	var maskedLocal string
	if len(localPart) <= 2 {
		maskedLocal = localPart
	} else {
		maskedLocal = localPart[:2] + strings.Repeat("*", len(localPart)-2)
	}

	return maskedLocal + "@" + domain
}
