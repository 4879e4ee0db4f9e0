package services

import (
	"context"
	"time"

	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/observability"
	"github.com/signcast/server/internal/repository"
)

// AssetSyncService owns the per-(screen, asset) sync status records: it
// creates them when an asset enters a screen's required set, prunes them
// when it leaves, and applies progress reports from screens.
type AssetSyncService struct {
	syncStatusRepo repository.SyncStatusRepo
	campaignRepo   repository.CampaignRepo
	logger         *observability.Logger
}

// NewAssetSyncService creates a new AssetSyncService
func NewAssetSyncService(syncStatusRepo repository.SyncStatusRepo, campaignRepo repository.CampaignRepo) *AssetSyncService {
	return &AssetSyncService{
		syncStatusRepo: syncStatusRepo,
		campaignRepo:   campaignRepo,
		logger:         observability.WithField("component", "asset_sync"),
	}
}

// Initialize creates a Pending record for every required asset not already
// tracked for the screen. Idempotent: existing records keep their in-flight
// state and progress across repeated pushes.
func (s *AssetSyncService) Initialize(ctx context.Context, screenID string, assetIDs []string) error {
	now := time.Now().UTC()
	for _, assetID := range dedupe(assetIDs) {
		existing, err := s.syncStatusRepo.Get(ctx, screenID, assetID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		record := &models.SyncStatusRecord{
			ScreenID:      screenID,
			AssetID:       assetID,
			State:         models.SyncPending,
			Progress:      0,
			LastUpdatedAt: now,
			CreatedAt:     now,
		}
		if err := s.syncStatusRepo.Create(ctx, record); err != nil {
			return err
		}
		s.logger.Debugf("Created sync status for screen %s asset %s", screenID, assetID)
	}
	return nil
}

// ReportStatus applies a progress report from a screen. Reports for assets
// the server no longer tracks are stale and discarded with a warning, as are
// reports carrying an unknown state token. Progress is clamped to [0,100].
func (s *AssetSyncService) ReportStatus(ctx context.Context, screenID string, req models.UpdateSyncStatusRequest) error {
	record, err := s.syncStatusRepo.Get(ctx, screenID, req.AssetID)
	if err != nil {
		return err
	}
	if record == nil {
		s.logger.Warnf("Stale sync report discarded: screen %s asset %s not tracked", screenID, req.AssetID)
		return nil
	}

	state, ok := models.ParseSyncState(req.SyncState)
	if !ok {
		s.logger.Warnf("Invalid sync state %q for screen %s asset %s, report discarded",
			req.SyncState, screenID, req.AssetID)
		return nil
	}

	record.State = state
	record.Progress = models.ClampProgress(req.Progress)
	record.ErrorMessage = req.ErrorMessage
	record.LastUpdatedAt = time.Now().UTC()

	if err := s.syncStatusRepo.Update(ctx, record); err != nil {
		return err
	}

	s.logger.Infof("Sync status screen=%s asset=%s state=%s progress=%d",
		screenID, req.AssetID, record.State, record.Progress)
	return nil
}

// GetStatuses returns the sync status projection for one screen
func (s *AssetSyncService) GetStatuses(ctx context.Context, screenID string) ([]models.SyncStatusItem, error) {
	records, err := s.syncStatusRepo.GetForScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}

	items := make([]models.SyncStatusItem, len(records))
	for i, rec := range records {
		items[i] = models.SyncStatusItem{
			AssetID:      rec.AssetID,
			SyncState:    string(rec.State),
			Progress:     rec.Progress,
			ErrorMessage: rec.ErrorMessage,
		}
	}
	return items, nil
}

// Prune deletes every record for the screen whose asset is no longer in the
// required set, regardless of its current state
func (s *AssetSyncService) Prune(ctx context.Context, screenID string, requiredAssetIDs []string) error {
	deleted, err := s.syncStatusRepo.DeleteNotIn(ctx, screenID, dedupe(requiredAssetIDs))
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Infof("Pruned %d outdated sync status records for screen %s", deleted, screenID)
	}
	return nil
}

// GetCampaignsToSync builds the start-sync manifest for a screen: its
// campaigns with the download-relevant subset of asset fields
func (s *AssetSyncService) GetCampaignsToSync(ctx context.Context, screenID string) ([]models.CampaignSyncInfo, error) {
	campaigns, err := s.campaignRepo.GetAssignedToScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}

	result := make([]models.CampaignSyncInfo, 0, len(campaigns))
	for _, campaign := range campaigns {
		assets := make([]models.AssetDownloadInfo, 0, len(campaign.Assets))
		for _, ca := range campaign.Assets {
			if ca.Asset == nil {
				continue
			}
			assets = append(assets, models.AssetDownloadInfo{
				AssetID:       ca.AssetID,
				Name:          ca.Asset.Name,
				Type:          string(ca.Asset.Type),
				Source:        ca.Asset.Source,
				FileSizeBytes: ca.Asset.FileSizeBytes,
			})
		}
		result = append(result, models.CampaignSyncInfo{
			CampaignID:   campaign.ID,
			CampaignName: campaign.Name,
			Assets:       assets,
		})
	}
	return result, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
