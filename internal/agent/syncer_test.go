package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signcast/server/internal/models"
)

// fakeServer serves asset downloads and captures status reports
type fakeServer struct {
	mu      sync.Mutex
	files   map[string][]byte
	fail    map[string]bool
	slow    map[string]chan struct{}
	reports []models.UpdateSyncStatusRequest
	srv     *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{
		files: make(map[string][]byte),
		fail:  make(map[string]bool),
		slow:  make(map[string]chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync/status", func(w http.ResponseWriter, r *http.Request) {
		var req models.UpdateSyncStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fs.mu.Lock()
		fs.reports = append(fs.reports, req)
		fs.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})
	mux.HandleFunc("/api/assets/", func(w http.ResponseWriter, r *http.Request) {
		// Path: /api/assets/{id}/download
		id := filepath.Base(filepath.Dir(r.URL.Path))
		fs.mu.Lock()
		failing := fs.fail[id]
		started := fs.slow[id]
		content, ok := fs.files[id]
		fs.mu.Unlock()

		if started != nil {
			// Declare a large body, flush one chunk, then stall until
			// the client gives up
			w.Header().Set("Content-Type", "video/mp4")
			w.Header().Set("Content-Length", "1048576")
			w.Write(make([]byte, 1024))
			w.(http.Flusher).Flush()
			close(started)
			<-r.Context().Done()
			return
		}
		if failing {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(content)
	})

	fs.srv = httptest.NewServer(mux)
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeServer) reportsFor(assetID string) []models.UpdateSyncStatusRequest {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []models.UpdateSyncStatusRequest
	for _, r := range fs.reports {
		if r.AssetID == assetID {
			out = append(out, r)
		}
	}
	return out
}

func newTestSyncer(t *testing.T, fs *fakeServer) (*AssetSyncer, *Cache, string) {
	t.Helper()
	dir := t.TempDir()
	cache := setupCache(t)
	reporter := NewStatusReporter(fs.srv.URL, "test-token")
	syncer := NewAssetSyncer(cache, reporter, fs.srv.URL, "test-token", dir)
	return syncer, cache, dir
}

func manifestWith(assets ...models.AssetDownloadInfo) []models.CampaignSyncInfo {
	return []models.CampaignSyncInfo{
		{CampaignID: "c1", CampaignName: "Campaign", Assets: assets},
	}
}

func TestAssetSyncer_SyncCampaigns(t *testing.T) {
	ctx := context.Background()

	t.Run("downloads asset and reports completion", func(t *testing.T) {
		fs := newFakeServer(t)
		fs.files["a1"] = []byte("jpeg bytes")
		syncer, cache, dir := newTestSyncer(t, fs)

		err := syncer.SyncCampaigns(ctx, manifestWith(
			models.AssetDownloadInfo{AssetID: "a1", Name: "Poster", Type: "Image", Source: "posters/a1.jpg"},
		))
		require.NoError(t, err)

		localPath, err := cache.LocalPath(ctx, "a1")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "a1.jpg"), localPath)

		content, err := os.ReadFile(localPath)
		require.NoError(t, err)
		assert.Equal(t, []byte("jpeg bytes"), content)

		reports := fs.reportsFor("a1")
		require.NotEmpty(t, reports)
		assert.Equal(t, string(models.SyncDownloading), reports[0].SyncState)
		last := reports[len(reports)-1]
		assert.Equal(t, string(models.SyncDownloaded), last.SyncState)
		assert.Equal(t, 100, last.Progress)
	})

	t.Run("website asset is marked done without download", func(t *testing.T) {
		fs := newFakeServer(t)
		syncer, _, dir := newTestSyncer(t, fs)

		err := syncer.SyncCampaigns(ctx, manifestWith(
			models.AssetDownloadInfo{AssetID: "w1", Name: "Menu Board", Type: "Website", Source: "https://example.com/menu"},
		))
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)

		reports := fs.reportsFor("w1")
		require.Len(t, reports, 1)
		assert.Equal(t, string(models.SyncDownloaded), reports[0].SyncState)
	})

	t.Run("existing file is not downloaded again", func(t *testing.T) {
		fs := newFakeServer(t)
		fs.files["a1"] = []byte("new bytes")
		syncer, cache, dir := newTestSyncer(t, fs)

		existing := filepath.Join(dir, "a1.jpg")
		require.NoError(t, os.WriteFile(existing, []byte("old bytes"), 0644))
		require.NoError(t, cache.ApplyManifest(ctx, manifestWith(
			models.AssetDownloadInfo{AssetID: "a1", Name: "Poster", Type: "Image", Source: "posters/a1.jpg"},
		)))
		require.NoError(t, cache.MarkDownloaded(ctx, "a1", existing))

		err := syncer.SyncCampaigns(ctx, manifestWith(
			models.AssetDownloadInfo{AssetID: "a1", Name: "Poster", Type: "Image", Source: "posters/a1.jpg"},
		))
		require.NoError(t, err)

		content, err := os.ReadFile(existing)
		require.NoError(t, err)
		assert.Equal(t, []byte("old bytes"), content)
	})

	t.Run("one failed asset does not stop the rest", func(t *testing.T) {
		fs := newFakeServer(t)
		fs.fail["bad"] = true
		fs.files["good"] = []byte("content")
		syncer, cache, _ := newTestSyncer(t, fs)

		err := syncer.SyncCampaigns(ctx, manifestWith(
			models.AssetDownloadInfo{AssetID: "bad", Name: "Broken", Type: "Image", Source: "bad.jpg"},
			models.AssetDownloadInfo{AssetID: "good", Name: "Fine", Type: "Image", Source: "good.jpg"},
		))
		require.NoError(t, err)

		localPath, err := cache.LocalPath(ctx, "good")
		require.NoError(t, err)
		assert.NotEmpty(t, localPath)

		badReports := fs.reportsFor("bad")
		require.NotEmpty(t, badReports)
		last := badReports[len(badReports)-1]
		assert.Equal(t, string(models.SyncFailed), last.SyncState)
		assert.NotNil(t, last.ErrorMessage)
	})

	t.Run("duplicate assets across campaigns download once", func(t *testing.T) {
		fs := newFakeServer(t)
		fs.files["a1"] = []byte("content")
		syncer, _, _ := newTestSyncer(t, fs)

		shared := models.AssetDownloadInfo{AssetID: "a1", Name: "Poster", Type: "Image", Source: "a1.jpg"}
		manifest := []models.CampaignSyncInfo{
			{CampaignID: "c1", CampaignName: "One", Assets: []models.AssetDownloadInfo{shared}},
			{CampaignID: "c2", CampaignName: "Two", Assets: []models.AssetDownloadInfo{shared}},
		}

		require.NoError(t, syncer.SyncCampaigns(ctx, manifest))

		var downloaded int
		for _, r := range fs.reportsFor("a1") {
			if r.SyncState == string(models.SyncDownloaded) {
				downloaded++
			}
		}
		assert.Equal(t, 1, downloaded)
	})

	t.Run("cancellation mid-download leaves no files behind", func(t *testing.T) {
		fs := newFakeServer(t)
		started := make(chan struct{})
		fs.slow["big"] = started
		syncer, cache, dir := newTestSyncer(t, fs)

		runCtx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- syncer.SyncCampaigns(runCtx, manifestWith(
				models.AssetDownloadInfo{AssetID: "big", Name: "Big", Type: "Video", Source: "big.mp4"},
				models.AssetDownloadInfo{AssetID: "never", Name: "Never", Type: "Image", Source: "never.jpg"},
			))
		}()

		<-started
		cancel()
		require.ErrorIs(t, <-done, context.Canceled)

		// Neither the final file nor a partial temp file survives
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)

		localPath, err := cache.LocalPath(ctx, "big")
		require.NoError(t, err)
		assert.Empty(t, localPath)

		// The failure report goes out even though the run was cancelled
		reports := fs.reportsFor("big")
		require.NotEmpty(t, reports)
		last := reports[len(reports)-1]
		assert.Equal(t, string(models.SyncFailed), last.SyncState)
		require.NotNil(t, last.ErrorMessage)

		// The asset after the cancellation point is never attempted
		assert.Empty(t, fs.reportsFor("never"))
	})

	t.Run("extension falls back to content type", func(t *testing.T) {
		fs := newFakeServer(t)
		fs.files["a1"] = []byte("content")
		syncer, cache, _ := newTestSyncer(t, fs)

		err := syncer.SyncCampaigns(ctx, manifestWith(
			models.AssetDownloadInfo{AssetID: "a1", Name: "Poster", Type: "Image", Source: "no-extension"},
		))
		require.NoError(t, err)

		localPath, err := cache.LocalPath(ctx, "a1")
		require.NoError(t, err)
		assert.NotEqual(t, "", filepath.Ext(localPath))
	})
}

// chunkReader yields one chunk per Read call so progress accounting sees
// each chunk separately
type chunkReader struct {
	chunks [][]byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.chunks = c.chunks[1:]
	return n, nil
}

func chunksOf(sizes ...int) [][]byte {
	var chunks [][]byte
	for _, size := range sizes {
		chunks = append(chunks, make([]byte, size))
	}
	return chunks
}

func TestCopyWithProgress(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		chunks    [][]byte
		total     int64
		wantSteps []int
	}{
		{"reports at quarter steps", chunksOf(100, 100, 100, 100), 400, []int{25, 50, 75}},
		{"large read skips straight to its step", chunksOf(300, 100), 400, []int{75}},
		{"unknown total reports nothing", chunksOf(100, 100, 100, 100), 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t)
			syncer, _, _ := newTestSyncer(t, fs)

			var dst bytes.Buffer
			err := syncer.copyWithProgress(ctx, &dst, &chunkReader{chunks: tt.chunks}, "a1", tt.total)
			require.NoError(t, err)
			assert.Equal(t, 400, dst.Len())

			var steps []int
			for _, r := range fs.reportsFor("a1") {
				assert.Equal(t, string(models.SyncDownloading), r.SyncState)
				steps = append(steps, r.Progress)
			}
			assert.Equal(t, tt.wantSteps, steps)
		})
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		contentType string
		want        string
	}{
		{"extension from source", "videos/promo.mp4", "video/mp4", ".mp4"},
		{"source wins over content type", "a.png", "image/jpeg", ".png"},
		{"no extension anywhere", "plain", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extensionFor(tt.source, tt.contentType))
		})
	}
}
