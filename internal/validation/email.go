package validation

import (
	"net/mail"
	"strings"
)

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail validates email format and length.
// The address must parse under RFC 5322 and carry a dotted domain.
func ValidateEmail(email string) error {
	if email == "" {
		return invalid("email", "email is required")
	}

	// RFC 5321: 254 characters max including the @
	if len(email) > 254 {
		return invalid("email", "email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "invalid email address format")
	}

	_, domain, ok := strings.Cut(email, "@")
	if !ok || !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return invalid("email", "invalid email address format")
	}

	return nil
}
