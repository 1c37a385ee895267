package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/projectdesk/internal/model"
)

var (
	ErrProjectNotFound = errors.New("project not found")
)

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	ByID(ctx context.Context, projectID string) (*model.Project, error)
	Projects(ctx context.Context, userID string) ([]*model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, userID, projectID string) error
}

type projectRepository struct {
	db *sqlx.DB
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	query := `INSERT INTO projects (id, user_id, name, description, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		project.ID,
		project.UserID,
		project.Name,
		project.Description,
		project.Status,
		project.CreatedAt.UTC(),
		project.UpdatedAt.UTC(),
	)

	return err
}

// ByID loads a project regardless of owner; callers enforce ownership so a
// foreign project can be told apart from a missing one.
func (r *projectRepository) ByID(ctx context.Context, projectID string) (*model.Project, error) {
	project := &model.Project{}
	query := `SELECT * FROM projects WHERE id = $1`

	err := r.db.GetContext(ctx, project, query, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}

	return project, nil
}

func (r *projectRepository) Projects(ctx context.Context, userID string) ([]*model.Project, error) {
	projects := []*model.Project{}

	query := `SELECT * FROM projects WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &projects, query, userID)
	if err != nil {
		return nil, err
	}

	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = now()
	query := `UPDATE projects
	          SET name = $1, description = $2, status = $3, updated_at = $4
	          WHERE id = $5 AND user_id = $6`

	result, err := r.db.ExecContext(ctx, query,
		project.Name,
		project.Description,
		project.Status,
		project.UpdatedAt,
		project.ID,
		project.UserID,
	)
	if err != nil {
		return err
	}

	return expectRow(result, ErrProjectNotFound)
}

func (r *projectRepository) Delete(ctx context.Context, userID, projectID string) error {
	query := `DELETE FROM projects WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return err
	}

	return expectRow(result, ErrProjectNotFound)
}
