package agent

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signcast/server/internal/models"
)

func setupCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func sampleManifest() []models.CampaignSyncInfo {
	size := int64(2048)
	return []models.CampaignSyncInfo{
		{
			CampaignID:   "c1",
			CampaignName: "Spring Sale",
			Assets: []models.AssetDownloadInfo{
				{AssetID: "a1", Name: "Poster", Type: "Image", Source: "posters/a1.jpg"},
				{AssetID: "a2", Name: "Promo", Type: "Video", Source: "videos/a2.mp4", FileSizeBytes: &size},
			},
		},
	}
}

func TestCache_ApplyManifest(t *testing.T) {
	ctx := context.Background()

	t.Run("stores campaigns and assets in order", func(t *testing.T) {
		cache := setupCache(t)
		require.NoError(t, cache.ApplyManifest(ctx, sampleManifest()))

		playlist, err := cache.Playlist(ctx)
		require.NoError(t, err)
		require.Len(t, playlist, 1)
		assert.Equal(t, "Spring Sale", playlist[0].CampaignName)
		require.Len(t, playlist[0].Assets, 2)
		assert.Equal(t, "a1", playlist[0].Assets[0].ID)
		assert.Equal(t, "a2", playlist[0].Assets[1].ID)
		require.NotNil(t, playlist[0].Assets[1].FileSizeBytes)
		assert.Equal(t, int64(2048), *playlist[0].Assets[1].FileSizeBytes)
	})

	t.Run("reapply replaces campaigns but keeps download state", func(t *testing.T) {
		cache := setupCache(t)
		require.NoError(t, cache.ApplyManifest(ctx, sampleManifest()))
		require.NoError(t, cache.MarkDownloaded(ctx, "a1", "/cache/a1.jpg"))

		// Same asset now under a different campaign
		manifest := []models.CampaignSyncInfo{
			{
				CampaignID:   "c2",
				CampaignName: "Summer Sale",
				Assets: []models.AssetDownloadInfo{
					{AssetID: "a1", Name: "Poster", Type: "Image", Source: "posters/a1.jpg"},
				},
			},
		}
		require.NoError(t, cache.ApplyManifest(ctx, manifest))

		playlist, err := cache.Playlist(ctx)
		require.NoError(t, err)
		require.Len(t, playlist, 1)
		assert.Equal(t, "c2", playlist[0].CampaignID)

		localPath, err := cache.LocalPath(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, "/cache/a1.jpg", localPath)
	})
}

func sampleConfiguration() models.ScreenConfiguration {
	return models.ScreenConfiguration{
		ScreenID:   "s1",
		ScreenName: "Lobby",
		Campaigns: []models.CampaignDetail{
			{
				ID:   "c1",
				Name: "Spring Sale",
				Assets: []models.CampaignAssetDetail{
					{AssetID: "a1", Name: "Poster", Type: "Image", Source: "posters/a1.jpg", Position: 0, ResolvedDuration: 5},
					{AssetID: "a2", Name: "Promo", Type: "Video", Source: "videos/a2.mp4", Position: 1, ResolvedDuration: 20},
				},
			},
		},
	}
}

func TestCache_ApplyConfiguration(t *testing.T) {
	ctx := context.Background()

	t.Run("stores resolved durations", func(t *testing.T) {
		cache := setupCache(t)
		require.NoError(t, cache.ApplyConfiguration(ctx, sampleConfiguration()))

		playlist, err := cache.Playlist(ctx)
		require.NoError(t, err)
		require.Len(t, playlist, 1)
		require.Len(t, playlist[0].Assets, 2)
		assert.Equal(t, 5, playlist[0].Assets[0].DurationSeconds)
		assert.Equal(t, 20, playlist[0].Assets[1].DurationSeconds)
	})

	t.Run("manifest reapply keeps durations for surviving slots", func(t *testing.T) {
		cache := setupCache(t)
		require.NoError(t, cache.ApplyConfiguration(ctx, sampleConfiguration()))
		require.NoError(t, cache.ApplyManifest(ctx, sampleManifest()))

		playlist, err := cache.Playlist(ctx)
		require.NoError(t, err)
		require.Len(t, playlist, 1)
		require.Len(t, playlist[0].Assets, 2)
		assert.Equal(t, 5, playlist[0].Assets[0].DurationSeconds)
		assert.Equal(t, 20, playlist[0].Assets[1].DurationSeconds)
	})

	t.Run("configuration reapply keeps download state", func(t *testing.T) {
		cache := setupCache(t)
		require.NoError(t, cache.ApplyManifest(ctx, sampleManifest()))
		require.NoError(t, cache.MarkDownloaded(ctx, "a1", "/cache/a1.jpg"))
		require.NoError(t, cache.ApplyConfiguration(ctx, sampleConfiguration()))

		localPath, err := cache.LocalPath(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, "/cache/a1.jpg", localPath)
	})
}

func TestCache_LocalPath(t *testing.T) {
	ctx := context.Background()

	t.Run("empty for unknown asset", func(t *testing.T) {
		cache := setupCache(t)
		localPath, err := cache.LocalPath(ctx, "ghost")
		require.NoError(t, err)
		assert.Empty(t, localPath)
	})

	t.Run("empty before download completes", func(t *testing.T) {
		cache := setupCache(t)
		require.NoError(t, cache.ApplyManifest(ctx, sampleManifest()))

		localPath, err := cache.LocalPath(ctx, "a1")
		require.NoError(t, err)
		assert.Empty(t, localPath)
	})
}

func TestCache_GetAsset(t *testing.T) {
	ctx := context.Background()
	cache := setupCache(t)
	require.NoError(t, cache.ApplyManifest(ctx, sampleManifest()))
	require.NoError(t, cache.MarkDownloaded(ctx, "a2", "/cache/a2.mp4"))

	asset, err := cache.GetAsset(ctx, "a2")
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "Promo", asset.Name)
	require.NotNil(t, asset.LocalPath)
	assert.Equal(t, "/cache/a2.mp4", *asset.LocalPath)
	assert.NotNil(t, asset.DownloadedAt)

	missing, err := cache.GetAsset(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
