package validation

const ContactLength = 11

// ValidateContact accepts an empty value (clears the contact) or exactly 11 digits.
func ValidateContact(contact string) error {
	if contact == "" {
		return nil
	}

	if len(contact) != ContactLength {
		return invalid("contact", "contact must have exactly 11 digits")
	}

	for _, r := range contact {
		if r < '0' || r > '9' {
			return invalid("contact", "contact must contain digits only")
		}
	}

	return nil
}

// ValidateAvatarRef bounds the stored avatar reference.
func ValidateAvatarRef(ref string) error {
	if len(ref) > 255 {
		return invalid("avatar", "avatar reference is too long (max 255 characters)")
	}
	return nil
}
