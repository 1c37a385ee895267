package validation

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	NameMinLength = 2
	NameMaxLength = 50
)

// NormalizeName trims surrounding space and composes the name to NFC so the
// same visible name always has the same byte form.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// ValidateName validates a display name that has already been normalized.
func ValidateName(name string) error {
	if name == "" {
		return invalid("name", "name is required")
	}

	n := utf8.RuneCountInString(name)
	if n < NameMinLength {
		return invalid("name", "name must be at least 2 characters")
	}
	if n > NameMaxLength {
		return invalid("name", "name is too long (max 50 characters)")
	}

	return nil
}
