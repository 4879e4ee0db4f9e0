package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/observability"
)

const progressReportStep = 25

// AssetSyncer downloads the assets named in a sync manifest into the local
// cache directory and reports per-asset progress back to the server. One
// asset failing never stops the rest of the manifest.
type AssetSyncer struct {
	cache    *Cache
	reporter *StatusReporter
	baseURL  string
	token    string
	cacheDir string
	client   *http.Client
	logger   *observability.Logger
}

// NewAssetSyncer creates a new AssetSyncer
func NewAssetSyncer(cache *Cache, reporter *StatusReporter, baseURL, token, cacheDir string) *AssetSyncer {
	return &AssetSyncer{
		cache:    cache,
		reporter: reporter,
		baseURL:  baseURL,
		token:    token,
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 30 * time.Minute},
		logger:   observability.WithField("component", "syncer"),
	}
}

// SyncCampaigns applies the manifest to the local cache and downloads every
// asset that is not already on disk
func (s *AssetSyncer) SyncCampaigns(ctx context.Context, manifest []models.CampaignSyncInfo) error {
	if err := s.cache.ApplyManifest(ctx, manifest); err != nil {
		return fmt.Errorf("failed to apply manifest: %w", err)
	}

	assets := collectManifestAssets(manifest)
	s.logger.Infof("Syncing %d campaigns, %d unique assets", len(manifest), len(assets))

	for _, asset := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.syncAsset(ctx, asset); err != nil {
			s.logger.Errorf("Asset %s (%s) failed: %v", asset.AssetID, asset.Name, err)
			// The run's context may already be cancelled; the Failed
			// report still has to reach the server.
			reportCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			s.reporter.ReportFailure(reportCtx, asset.AssetID, err)
			cancel()
		}
	}

	return nil
}

// Resync fetches the server's current manifest and syncs against it. Run
// after every reconnect: pushes missed while offline are lost, so the
// manifest is re-read instead of waiting for the next one.
func (s *AssetSyncer) Resync(ctx context.Context) error {
	manifest, err := s.FetchManifest(ctx)
	if err != nil {
		return err
	}
	return s.SyncCampaigns(ctx, manifest)
}

// FetchManifest reads the download manifest from the server
func (s *AssetSyncer) FetchManifest(ctx context.Context) ([]models.CampaignSyncInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/sync/campaigns", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest request failed: %s", resp.Status)
	}

	var manifest []models.CampaignSyncInfo
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// syncAsset brings one asset into the local cache
func (s *AssetSyncer) syncAsset(ctx context.Context, asset models.AssetDownloadInfo) error {
	// Website assets are rendered live by the player, nothing to download
	if asset.Type == string(models.AssetWebsite) {
		s.reporter.ReportState(ctx, asset.AssetID, models.SyncDownloaded, 100)
		return nil
	}

	if localPath, err := s.cache.LocalPath(ctx, asset.AssetID); err == nil && localPath != "" {
		if _, statErr := os.Stat(localPath); statErr == nil {
			s.logger.Debugf("Asset %s already cached at %s", asset.AssetID, localPath)
			s.reporter.ReportState(ctx, asset.AssetID, models.SyncDownloaded, 100)
			return nil
		}
	}

	s.reporter.ReportState(ctx, asset.AssetID, models.SyncDownloading, 0)

	localPath, err := s.download(ctx, asset)
	if err != nil {
		return err
	}

	if err := s.cache.MarkDownloaded(ctx, asset.AssetID, localPath); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}

	s.reporter.ReportState(ctx, asset.AssetID, models.SyncDownloaded, 100)
	s.logger.Infof("Asset %s downloaded to %s", asset.AssetID, localPath)
	return nil
}

// download streams the asset file to a temp file and moves it into place
func (s *AssetSyncer) download(ctx context.Context, asset models.AssetDownloadInfo) (string, error) {
	downloadURL := s.baseURL + "/api/assets/" + url.PathEscape(asset.AssetID) + "/download"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: %s", resp.Status)
	}

	ext := extensionFor(asset.Source, resp.Header.Get("Content-Type"))
	finalPath := filepath.Join(s.cacheDir, asset.AssetID+ext)

	if err := os.MkdirAll(s.cacheDir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.cacheDir, asset.AssetID+".part-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	total := resp.ContentLength
	if total <= 0 && asset.FileSizeBytes != nil {
		total = *asset.FileSizeBytes
	}

	if err := s.copyWithProgress(ctx, tmp, resp.Body, asset.AssetID, total); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

// copyWithProgress streams the body to dst, reporting progress every 25%
// when the total size is known
func (s *AssetSyncer) copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, assetID string, total int64) error {
	buf := make([]byte, 32*1024)
	var written int64
	lastReported := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
			written += int64(n)

			if total > 0 {
				progress := int(written * 100 / total)
				if progress >= lastReported+progressReportStep && progress < 100 {
					lastReported = progress - progress%progressReportStep
					s.reporter.ReportState(ctx, assetID, models.SyncDownloading, progress)
				}
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// collectManifestAssets flattens the manifest into a deduplicated asset
// list; the first occurrence wins
func collectManifestAssets(manifest []models.CampaignSyncInfo) []models.AssetDownloadInfo {
	seen := make(map[string]bool)
	var assets []models.AssetDownloadInfo
	for _, campaign := range manifest {
		for _, asset := range campaign.Assets {
			if seen[asset.AssetID] {
				continue
			}
			seen[asset.AssetID] = true
			assets = append(assets, asset)
		}
	}
	return assets
}

// extensionFor picks a file extension from the source path, falling back
// to the response content type
func extensionFor(source, contentType string) string {
	if ext := path.Ext(path.Base(source)); ext != "" {
		return ext
	}
	if contentType != "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			return exts[0]
		}
	}
	return ""
}
