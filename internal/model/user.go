package model

import (
	"strings"
	"time"
)

type User struct {
	ID                 string     `db:"id"`
	Email              string     `db:"email"`
	PasswordHash       string     `db:"password_hash"`
	IsAdmin            bool       `db:"is_admin"`
	MustChangePassword bool       `db:"must_change_password"`
	IsActive           bool       `db:"is_active"`
	ResetTokenHash     *string    `db:"reset_token_hash"`
	ResetExpiresAt     *time.Time `db:"reset_expires_at"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// DisplayName prefers the profile name and falls back to the email local part.
func (u *User) DisplayName(profile *Profile) string {
	if profile != nil && profile.Name != "" {
		return profile.Name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}
