// Package session keeps server-side login sessions and binds them to requests
// through a signed cookie.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/templui/projectdesk/internal/model"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions. Get returns ErrSessionNotFound for missing and
// expired sessions alike.
type Store interface {
	Create(ctx context.Context, sess *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes every session of userID except exceptID (may be empty).
	DeleteByUser(ctx context.Context, userID, exceptID string) error
}

func NewSessionID() string {
	return uuid.NewString()
}
