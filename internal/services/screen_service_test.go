package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/repository"
)

func setupScreenService(t *testing.T) *ScreenService {
	t.Helper()
	db := setupTestDB(t)
	return NewScreenService(repository.NewScreenRepository(db))
}

func TestScreenService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("registers pending screen with identifier", func(t *testing.T) {
		svc := setupScreenService(t)

		resp, err := svc.Register(ctx, models.RegisterScreenRequest{DeviceName: "Lobby TV"})
		require.NoError(t, err)
		assert.Equal(t, "Lobby TV", resp.ScreenName)
		assert.Len(t, resp.ScreenIdentifier, screenIdentifierLength)
	})

	t.Run("generates default name when none given", func(t *testing.T) {
		svc := setupScreenService(t)

		resp, err := svc.Register(ctx, models.RegisterScreenRequest{})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resp.ScreenName, "Screen "))
	})

	t.Run("identifiers are unique across registrations", func(t *testing.T) {
		svc := setupScreenService(t)

		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			resp, err := svc.Register(ctx, models.RegisterScreenRequest{DeviceName: "S"})
			require.NoError(t, err)
			assert.False(t, seen[resp.ScreenIdentifier])
			seen[resp.ScreenIdentifier] = true
		}
	})
}

func TestScreenService_ApprovalLifecycle(t *testing.T) {
	ctx := context.Background()

	register := func(t *testing.T, svc *ScreenService) string {
		resp, err := svc.Register(ctx, models.RegisterScreenRequest{DeviceName: "Lobby TV"})
		require.NoError(t, err)
		list, err := svc.List(ctx, 1, 10, nil, "")
		require.NoError(t, err)
		for _, item := range list.Items {
			if item.ScreenIdentifier == resp.ScreenIdentifier {
				return item.ID
			}
		}
		t.Fatal("registered screen not found in listing")
		return ""
	}

	t.Run("approve issues a one-time token", func(t *testing.T) {
		svc := setupScreenService(t)
		id := register(t, svc)

		resp, err := svc.Approve(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, string(models.ApprovalApproved), resp.Screen.ApprovalStatus)
		require.NotEmpty(t, resp.Token)
		assert.Contains(t, resp.Token, ".")

		// Issued token authenticates the screen
		screen, err := svc.Authenticate(ctx, resp.Token)
		require.NoError(t, err)
		require.NotNil(t, screen)
		assert.Equal(t, id, screen.ID)
	})

	t.Run("re-approve keeps principal and returns no token", func(t *testing.T) {
		svc := setupScreenService(t)
		id := register(t, svc)

		first, err := svc.Approve(ctx, id)
		require.NoError(t, err)

		second, err := svc.Approve(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, second.Token)

		// Original token still works
		screen, err := svc.Authenticate(ctx, first.Token)
		require.NoError(t, err)
		require.NotNil(t, screen)
	})

	t.Run("reject flips status", func(t *testing.T) {
		svc := setupScreenService(t)
		id := register(t, svc)

		resp, err := svc.Reject(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, string(models.ApprovalRejected), resp.ApprovalStatus)
	})

	t.Run("approve of unknown screen fails", func(t *testing.T) {
		svc := setupScreenService(t)

		_, err := svc.Approve(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrScreenNotFound)
	})
}

func TestScreenService_Authenticate(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*ScreenService, string) {
		svc := setupScreenService(t)
		resp, err := svc.Register(ctx, models.RegisterScreenRequest{DeviceName: "Lobby TV"})
		require.NoError(t, err)
		list, err := svc.List(ctx, 1, 10, nil, "")
		require.NoError(t, err)
		_ = resp
		approved, err := svc.Approve(ctx, list.Items[0].ID)
		require.NoError(t, err)
		return svc, approved.Token
	}

	t.Run("rejects malformed token", func(t *testing.T) {
		svc, _ := setup(t)
		screen, err := svc.Authenticate(ctx, "no-separator")
		require.NoError(t, err)
		assert.Nil(t, screen)
	})

	t.Run("rejects token with wrong secret", func(t *testing.T) {
		svc, token := setup(t)
		principal := strings.SplitN(token, ".", 2)[0]

		screen, err := svc.Authenticate(ctx, principal+".wrong-secret")
		require.NoError(t, err)
		assert.Nil(t, screen)
	})

	t.Run("rejects token for unknown principal", func(t *testing.T) {
		svc, _ := setup(t)
		screen, err := svc.Authenticate(ctx, "ghost.secret")
		require.NoError(t, err)
		assert.Nil(t, screen)
	})
}

func TestScreenService_List(t *testing.T) {
	ctx := context.Background()

	svc := setupScreenService(t)
	for i := 0; i < 5; i++ {
		_, err := svc.Register(ctx, models.RegisterScreenRequest{})
		require.NoError(t, err)
	}

	t.Run("paginates", func(t *testing.T) {
		page1, err := svc.List(ctx, 1, 2, nil, "")
		require.NoError(t, err)
		assert.Equal(t, 5, page1.Total)
		assert.Len(t, page1.Items, 2)

		page3, err := svc.List(ctx, 3, 2, nil, "")
		require.NoError(t, err)
		assert.Len(t, page3.Items, 1)
	})

	t.Run("filters by status", func(t *testing.T) {
		pending := models.ApprovalPending
		result, err := svc.List(ctx, 1, 10, &pending, "")
		require.NoError(t, err)
		assert.Equal(t, 5, result.Total)

		approved := models.ApprovalApproved
		result, err = svc.List(ctx, 1, 10, &approved, "")
		require.NoError(t, err)
		assert.Equal(t, 0, result.Total)
	})

	t.Run("clamps invalid paging values", func(t *testing.T) {
		result, err := svc.List(ctx, -1, 0, nil, "")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
		assert.NotEmpty(t, result.Items)
	})
}
