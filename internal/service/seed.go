package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/templui/projectdesk/internal/model"
	"github.com/templui/projectdesk/internal/repository"
)

const (
	SeedAdminEmail   = "admin@example.com"
	seedAdminName    = "Example Administrator"
	seedAdminContact = "11999999999"
)

type SeedService struct {
	userRepository    repository.UserRepository
	projectRepository repository.ProjectRepository
}

func NewSeedService(userRepository repository.UserRepository, projectRepository repository.ProjectRepository) *SeedService {
	return &SeedService{
		userRepository:    userRepository,
		projectRepository: projectRepository,
	}
}

// SeedAdmin creates the demo administrator with one project per status. It
// does nothing when the account already exists.
func (s *SeedService) SeedAdmin(ctx context.Context, password string) error {
	_, err := s.userRepository.ByEmail(ctx, SeedAdminEmail)
	if err == nil {
		slog.Debug("admin already seeded", "email", SeedAdminEmail)
		return nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		ID:           uuid.New().String(),
		Email:        SeedAdminEmail,
		PasswordHash: hash,
		IsAdmin:      true,
		IsActive:     true,
	}
	profile := &model.Profile{Name: seedAdminName, Contact: seedAdminContact}

	err = s.userRepository.CreateWithProfile(ctx, admin, profile)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	demo := []struct{ name, description, status string }{
		{"Website redesign", "Refresh the landing page and pricing table.", model.ProjectStatusTodo},
		{"Mobile app", "Ship the first beta to internal testers.", model.ProjectStatusInProgress},
		{"Onboarding docs", "Write the getting started guide.", model.ProjectStatusDone},
	}

	// Spread creation times so the newest-first listing is deterministic.
	base := now().Add(-time.Duration(len(demo)) * time.Minute)
	for i, d := range demo {
		description := d.description
		created := base.Add(time.Duration(i) * time.Minute)
		err = s.projectRepository.Create(ctx, &model.Project{
			ID:          uuid.New().String(),
			UserID:      admin.ID,
			Name:        d.name,
			Description: &description,
			Status:      d.status,
			CreatedAt:   created,
			UpdatedAt:   created,
		})
		if err != nil {
			return fmt.Errorf("failed to create demo project: %w", err)
		}
	}

	slog.Info("seeded admin account", "email", SeedAdminEmail, "projects", len(demo))
	return nil
}
