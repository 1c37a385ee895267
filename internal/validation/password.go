package validation

import "unicode/utf8"

const (
	PasswordMinLength = 6 // characters
	// bcrypt silently truncates anything longer than 72 bytes
	PasswordMaxBytes = 72
)

// ValidatePassword enforces the length bounds for new passwords.
func ValidatePassword(password string) error {
	if password == "" {
		return invalid("password", "password is required")
	}

	if utf8.RuneCountInString(password) < PasswordMinLength {
		return invalid("password", "password must be at least 6 characters")
	}

	if len(password) > PasswordMaxBytes {
		return invalid("password", "password must not exceed 72 bytes")
	}

	return nil
}
