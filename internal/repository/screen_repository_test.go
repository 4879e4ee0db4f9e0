package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signcast/server/internal/models"
)

func setupScreenRepo(t *testing.T) (*ScreenRepository, *sql.DB) {
	t.Helper()
	db, err := NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewScreenRepository(db), db
}

func addScreen(t *testing.T, repo *ScreenRepository, name, identifier string) *models.Screen {
	t.Helper()
	screen := models.NewScreen(name, identifier, nil, nil)
	require.NoError(t, repo.Add(context.Background(), screen))
	return screen
}

func TestScreenRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupScreenRepo(t)
	screen := addScreen(t, repo, "Lobby", "ident-1")

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, screen.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Lobby", got.Name)
		assert.Equal(t, models.ApprovalPending, got.ApprovalStatus)
	})

	t.Run("get by identifier", func(t *testing.T) {
		got, err := repo.GetByIdentifier(ctx, "ident-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, screen.ID, got.ID)
	})

	t.Run("missing rows return nil without error", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = repo.GetByPrincipalID(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("identifier existence check", func(t *testing.T) {
		exists, err := repo.IdentifierExists(ctx, "ident-1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.IdentifierExists(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestScreenRepository_SetApproval(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupScreenRepo(t)
	screen := addScreen(t, repo, "Lobby", "ident-1")

	principal := "principal-1"
	hash := "hashed-secret"
	require.NoError(t, repo.SetApproval(ctx, screen.ID, models.ApprovalApproved, &principal, &hash))

	got, err := repo.GetByPrincipalID(ctx, principal)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, screen.ID, got.ID)
	assert.Equal(t, models.ApprovalApproved, got.ApprovalStatus)
	require.NotNil(t, got.TokenHash)
	assert.Equal(t, hash, *got.TokenHash)
}

func TestScreenRepository_SetActive(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupScreenRepo(t)
	screen := addScreen(t, repo, "Lobby", "ident-1")

	require.NoError(t, repo.SetActive(ctx, screen.ID, true))

	got, err := repo.GetByID(ctx, screen.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.NotNil(t, got.LastSeenAt)

	require.NoError(t, repo.SetActive(ctx, screen.ID, false))
	got, err = repo.GetByID(ctx, screen.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestScreenRepository_List(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupScreenRepo(t)
	addScreen(t, repo, "Charlie", "i1")
	addScreen(t, repo, "Alpha", "i2")
	addScreen(t, repo, "Bravo", "i3")

	t.Run("sorts by name", func(t *testing.T) {
		screens, total, err := repo.List(ctx, 1, 10, nil, "name")
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, screens, 3)
		assert.Equal(t, "Alpha", screens[0].Name)
		assert.Equal(t, "Bravo", screens[1].Name)
		assert.Equal(t, "Charlie", screens[2].Name)
	})

	t.Run("pages results", func(t *testing.T) {
		screens, total, err := repo.List(ctx, 2, 2, nil, "name")
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, screens, 1)
		assert.Equal(t, "Charlie", screens[0].Name)
	})

	t.Run("filters by status", func(t *testing.T) {
		approved := models.ApprovalApproved
		screens, total, err := repo.List(ctx, 1, 10, &approved, "")
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, screens)
	})
}
