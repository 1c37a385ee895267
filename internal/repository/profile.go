package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/projectdesk/internal/model"
)

type ProfileRepository interface {
	ByUserID(ctx context.Context, userID string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	Update(ctx context.Context, profile *model.Profile) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

const insertProfile = `
	INSERT INTO profiles (id, user_id, name, contact, avatar, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (r *profileRepository) ByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	stampProfile(profile)

	_, err := r.db.ExecContext(ctx, insertProfile,
		profile.ID, profile.UserID, profile.Name, profile.Contact, profile.Avatar, profile.CreatedAt, profile.UpdatedAt)

	return err
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = $1, contact = $2, avatar = $3, updated_at = $4
		WHERE user_id = $5
	`, profile.Name, profile.Contact, profile.Avatar, profile.UpdatedAt, profile.UserID)
	if err != nil {
		return err
	}

	return expectRow(result, ErrProfileNotFound)
}

func stampProfile(profile *model.Profile) {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.Avatar == "" {
		profile.Avatar = model.DefaultAvatar
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now()
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = profile.CreatedAt
	}
}
