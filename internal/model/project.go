package model

import (
	"time"
)

const (
	ProjectStatusTodo       = "Todo"
	ProjectStatusInProgress = "InProgress"
	ProjectStatusDone       = "Done"
)

// ProjectStatuses lists every accepted status in workflow order.
var ProjectStatuses = []string{ProjectStatusTodo, ProjectStatusInProgress, ProjectStatusDone}

func ValidProjectStatus(status string) bool {
	for _, s := range ProjectStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Project struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (p *Project) OwnedBy(userID string) bool {
	return p.UserID == userID
}
