package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/projectdesk/internal/db"
	"github.com/templui/projectdesk/internal/repository"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentReset
	sendFn func() error
}

type sentReset struct {
	email, name, token string
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, email, name, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentReset{email: email, name: name, token: token})
	if m.sendFn != nil {
		return m.sendFn()
	}
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentReset {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no reset email sent")
	return m.sent[len(m.sent)-1]
}

type revokeCall struct {
	userID, keepID string
}

type fakeRevoker struct {
	calls []revokeCall
}

func (r *fakeRevoker) RevokeUser(_ context.Context, userID, keepID string) error {
	r.calls = append(r.calls, revokeCall{userID: userID, keepID: keepID})
	return nil
}

type memoryStorage struct {
	objects map[string][]byte
	saveErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: map[string][]byte{}}
}

func (s *memoryStorage) Save(_ context.Context, key, _ string, body io.Reader) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	var buf bytes.Buffer
	_, err := io.Copy(&buf, body)
	if err != nil {
		return err
	}
	s.objects[key] = buf.Bytes()
	return nil
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memoryStorage) URL(_ context.Context, key string) string {
	return "https://cdn.test/" + key
}

type testEnv struct {
	db       *sqlx.DB
	users    repository.UserRepository
	profiles repository.ProfileRepository
	projects repository.ProjectRepository
	mailer   *fakeMailer
	revoker  *fakeRevoker
	auth     *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := setupTestDB(t)
	env := &testEnv{
		db:       database,
		users:    repository.NewUserRepository(database),
		profiles: repository.NewProfileRepository(database),
		projects: repository.NewProjectRepository(database),
		mailer:   &fakeMailer{},
		revoker:  &fakeRevoker{},
	}
	env.auth = NewAuthService(env.users, env.profiles, env.revoker, env.mailer, time.Hour)
	return env
}

// setUserFlag flips an admin-managed column that no service operation writes.
func (env *testEnv) setUserFlag(t *testing.T, userID, column string, value bool) {
	t.Helper()
	_, err := env.db.ExecContext(context.Background(), "UPDATE users SET "+column+" = $1 WHERE id = $2", value, userID)
	require.NoError(t, err)
}
