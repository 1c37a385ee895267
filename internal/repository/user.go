package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/projectdesk/internal/model"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrResetTokenNotFound = errors.New("reset token not found or expired")
)

type UserRepository interface {
	CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	RedeemResetToken(ctx context.Context, tokenHash, passwordHash string) (*model.User, error)
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const insertUser = `
	INSERT INTO users (id, email, password_hash, is_admin, must_change_password, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

// CreateWithProfile inserts the user and its profile in one transaction so a
// failed profile insert never leaves a user without a profile behind.
func (r *userRepository) CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error {
	stampUser(user)
	profile.UserID = user.ID
	stampProfile(profile)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, insertUser,
		user.ID, user.Email, user.PasswordHash, user.IsAdmin, user.MustChangePassword, user.IsActive, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return mapUserError(err)
	}

	_, err = tx.ExecContext(ctx, insertProfile,
		profile.ID, profile.UserID, profile.Name, profile.Contact, profile.Avatar, profile.CreatedAt, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return tx.Commit()
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, must_change_password = FALSE, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, passwordHash, now(), userID)
	if err != nil {
		return err
	}

	return expectRow(result, ErrUserNotFound)
}

// SetResetToken replaces any previously issued reset token for the user.
func (r *userRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `UPDATE users SET reset_token_hash = $1, reset_expires_at = $2, updated_at = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt.UTC(), now(), userID)
	if err != nil {
		return err
	}

	return expectRow(result, ErrUserNotFound)
}

// RedeemResetToken atomically swaps in the new password hash and clears the
// token. Only an unexpired token matches, and only one caller can clear it,
// so a token can never be redeemed twice.
func (r *userRepository) RedeemResetToken(ctx context.Context, tokenHash, passwordHash string) (*model.User, error) {
	var user model.User
	ts := now()

	query := `
		UPDATE users
		SET password_hash = $1,
		    must_change_password = FALSE,
		    reset_token_hash = NULL,
		    reset_expires_at = NULL,
		    updated_at = $2
		WHERE reset_token_hash = $3
		AND reset_expires_at > $4
		RETURNING *
	`

	err := r.db.GetContext(ctx, &user, query, passwordHash, ts, tokenHash, ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResetTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// ClearExpiredResetTokens drops reset tokens whose expiry has passed.
func (r *userRepository) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET reset_token_hash = NULL, reset_expires_at = NULL
		WHERE reset_expires_at IS NOT NULL AND reset_expires_at <= $1
	`

	result, err := r.db.ExecContext(ctx, query, now())
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func stampUser(user *model.User) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
}

// mapUserError translates unique violations (SQLite and PostgreSQL wording) to ErrDuplicateEmail.
func mapUserError(err error) error {
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed: users.email") || strings.Contains(errStr, "users_email_key") {
		return ErrDuplicateEmail
	}
	return err
}
