package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/templui/projectdesk/internal/model"
)

const CookieName = "session"

var ErrNoSession = errors.New("no session")

// Manager issues and resolves session cookies. The cookie carries an HMAC
// signed token naming the session id; the session itself lives in the Store
// so it can be revoked server-side.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewManager(store Store, secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
	}
}

// Start creates a session for userID and sets the cookie on w.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, userID, ip, userAgent string) (*model.Session, error) {
	now := time.Now().UTC()
	sess := &model.Session{
		ID:        NewSessionID(),
		UserID:    userID,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	err := m.store.Create(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := m.sign(sess)
	if err != nil {
		_ = m.store.Delete(ctx, sess.ID)
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	m.setCookie(w, token, sess.ExpiresAt)
	return sess, nil
}

// Resolve returns the live session named by the request cookie, or ErrNoSession.
func (m *Manager) Resolve(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims, err := m.verify(cookie.Value)
	if err != nil {
		return nil, ErrNoSession
	}

	sess, err := m.store.Get(r.Context(), claims.ID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	if sess.UserID != claims.Subject {
		return nil, ErrNoSession
	}

	return sess, nil
}

// End deletes the session and clears the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, sessionID string) error {
	m.Clear(w)
	return m.store.Delete(ctx, sessionID)
}

// RevokeUser deletes all sessions of userID except keepID.
func (m *Manager) RevokeUser(ctx context.Context, userID, keepID string) error {
	return m.store.DeleteByUser(ctx, userID, keepID)
}

func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) sign(sess *model.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   sess.UserID,
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) verify(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ID == "" {
		return nil, errors.New("invalid session token")
	}

	return claims, nil
}
