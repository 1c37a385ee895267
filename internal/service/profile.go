package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/templui/projectdesk/internal/model"
	"github.com/templui/projectdesk/internal/repository"
	"github.com/templui/projectdesk/internal/storage"
	"github.com/templui/projectdesk/internal/validation"
)

var ErrStorageUnavailable = errors.New("avatar uploads are not available")

// ProfileUpdate carries the fields to change; nil fields are left alone.
type ProfileUpdate struct {
	Name    *string
	Contact *string
	Avatar  *string
}

type ProfileService struct {
	profileRepo repository.ProfileRepository
	storage     storage.Storage
}

// NewProfileService accepts a nil store, in which case uploads fail with
// ErrStorageUnavailable.
func NewProfileService(profileRepo repository.ProfileRepository, store storage.Storage) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		storage:     store,
	}
}

// Get returns the profile of userID, creating an empty one when it is missing.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.ByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile = &model.Profile{UserID: userID}
	err = s.profileRepo.Create(ctx, profile)
	if err != nil {
		// A concurrent request may have created it first.
		existing, getErr := s.profileRepo.ByUserID(ctx, userID)
		if getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	slog.Info("profile created on first access", "user_id", userID)
	return profile, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileUpdate) (*model.Profile, error) {
	var name, contact, avatar string
	if in.Name != nil {
		name = validation.NormalizeName(*in.Name)
		err := validation.ValidateName(name)
		if err != nil {
			return nil, err
		}
	}
	if in.Contact != nil {
		contact = strings.TrimSpace(*in.Contact)
		err := validation.ValidateContact(contact)
		if err != nil {
			return nil, err
		}
	}
	if in.Avatar != nil {
		avatar = strings.TrimSpace(*in.Avatar)
		err := validation.ValidateAvatarRef(avatar)
		if err != nil {
			return nil, err
		}
		if avatar == "" {
			avatar = model.DefaultAvatar
		}
	}

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		profile.Name = name
	}
	if in.Contact != nil {
		profile.Contact = contact
	}
	if in.Avatar != nil {
		profile.Avatar = avatar
	}

	err = s.profileRepo.Update(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}

// UploadAvatar stores an image and points the profile at it. The previous
// uploaded avatar, if any, is removed from storage.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (*model.Profile, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	err := validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		return nil, err
	}

	profile, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := storage.AvatarKey(uuid.New().String(), ext)
	err = s.storage.Save(ctx, key, mime.TypeByExtension(ext), file)
	if err != nil {
		return nil, fmt.Errorf("failed to save avatar: %w", err)
	}

	previous := profile.Avatar
	profile.Avatar = key
	err = s.profileRepo.Update(ctx, profile)
	if err != nil {
		delErr := s.storage.Delete(ctx, key)
		if delErr != nil {
			slog.Error("failed to delete avatar during cleanup", "error", delErr, "key", key)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if isStoredAvatar(previous) {
		err = s.storage.Delete(ctx, previous)
		if err != nil {
			slog.Warn("failed to delete previous avatar", "error", err, "key", previous)
		}
	}

	slog.Info("avatar uploaded", "user_id", userID, "key", key)
	return profile, nil
}

// AvatarURL resolves an avatar reference for clients. Uploaded avatars get a
// storage URL; any other reference is returned unchanged.
func (s *ProfileService) AvatarURL(ctx context.Context, avatar string) string {
	if s.storage == nil || !isStoredAvatar(avatar) {
		return avatar
	}
	return s.storage.URL(ctx, avatar)
}

func isStoredAvatar(ref string) bool {
	return strings.HasPrefix(ref, storage.AvatarPrefix)
}
