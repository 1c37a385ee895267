package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/templui/projectdesk/internal/model"
	"github.com/templui/projectdesk/internal/repository"
	"github.com/templui/projectdesk/internal/validation"
)

var ErrForbidden = errors.New("you are not allowed to access this project")

// ProjectInput is used for create and update. On update nil fields keep
// their current value; on create a nil Status means Todo.
type ProjectInput struct {
	Name        *string
	Description *string
	Status      *string
}

type ProjectService struct {
	projectRepo repository.ProjectRepository
}

func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

// List returns the projects of userID, newest first.
func (s *ProjectService) List(ctx context.Context, userID string) ([]*model.Project, error) {
	projects, err := s.projectRepo.Projects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) Create(ctx context.Context, userID string, in ProjectInput) (*model.Project, error) {
	if in.Name == nil {
		return nil, validation.ValidateProjectName("")
	}

	project := &model.Project{
		ID:     uuid.New().String(),
		UserID: userID,
		Status: model.ProjectStatusTodo,
	}

	err := applyProjectInput(project, in)
	if err != nil {
		return nil, err
	}

	project.CreatedAt = now()
	project.UpdatedAt = project.CreatedAt

	err = s.projectRepo.Create(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	slog.Info("project created", "project_id", project.ID, "user_id", userID)
	return project, nil
}

// Get returns the project when userID owns it. A missing project yields
// repository.ErrProjectNotFound, someone else's yields ErrForbidden.
func (s *ProjectService) Get(ctx context.Context, userID, projectID string) (*model.Project, error) {
	project, err := s.projectRepo.ByID(ctx, projectID)
	if errors.Is(err, repository.ErrProjectNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if !project.OwnedBy(userID) {
		slog.Warn("project access denied", "project_id", projectID, "user_id", userID)
		return nil, ErrForbidden
	}

	return project, nil
}

func (s *ProjectService) Update(ctx context.Context, userID, projectID string, in ProjectInput) (*model.Project, error) {
	project, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	err = applyProjectInput(project, in)
	if err != nil {
		return nil, err
	}

	err = s.projectRepo.Update(ctx, project)
	if errors.Is(err, repository.ErrProjectNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	_, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return err
	}

	err = s.projectRepo.Delete(ctx, userID, projectID)
	if errors.Is(err, repository.ErrProjectNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	slog.Info("project deleted", "project_id", projectID, "user_id", userID)
	return nil
}

// applyProjectInput validates every provided field before touching project,
// so a rejected input leaves it unchanged.
func applyProjectInput(project *model.Project, in ProjectInput) error {
	var name, status string
	var description *string

	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		err := validation.ValidateProjectName(name)
		if err != nil {
			return err
		}
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		err := validation.ValidateProjectDescription(d)
		if err != nil {
			return err
		}
		if d != "" {
			description = &d
		}
	}
	if in.Status != nil {
		status = strings.TrimSpace(*in.Status)
		err := validation.ValidateProjectStatus(status)
		if err != nil {
			return err
		}
	}

	if in.Name != nil {
		project.Name = name
	}
	if in.Description != nil {
		project.Description = description
	}
	if in.Status != nil {
		project.Status = status
	}
	return nil
}
