package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/projectdesk/internal/model"
)

func TestSeedAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seed := NewSeedService(env.users, env.projects)

	require.NoError(t, seed.SeedAdmin(ctx, "123456"))
	require.NoError(t, seed.SeedAdmin(ctx, "ignored"), "seeding twice is a no-op")

	admin, err := env.auth.Login(ctx, SeedAdminEmail, "123456")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	profile, err := env.profiles.ByUserID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Example Administrator", profile.Name)
	assert.Equal(t, "11999999999", profile.Contact)

	projects, err := env.projects.Projects(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, model.ProjectStatusDone, projects[0].Status, "newest first")
	assert.Equal(t, model.ProjectStatusTodo, projects[2].Status)
}
