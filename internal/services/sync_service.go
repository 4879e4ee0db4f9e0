package services

import (
	"context"

	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/observability"
	"github.com/signcast/server/internal/repository"
)

// ConfigSender unicasts live-channel messages to one screen identity.
// Satisfied by ScreenHub.
type ConfigSender interface {
	SendToScreen(identity string, msg HubMessage)
}

// ScreenSyncService computes the desired configuration for a screen and
// pushes it over the live channel, then reconciles the screen's sync status
// records against the newly required asset set.
type ScreenSyncService struct {
	screenRepo      repository.ScreenRepo
	campaignRepo    repository.CampaignRepo
	assetSync       *AssetSyncService
	registry        *ConnectionRegistry
	sender          ConfigSender
	defaultDuration int
	metrics         *observability.FleetMetrics
	logger          *observability.Logger
}

// NewScreenSyncService creates a new ScreenSyncService
func NewScreenSyncService(
	screenRepo repository.ScreenRepo,
	campaignRepo repository.CampaignRepo,
	assetSync *AssetSyncService,
	registry *ConnectionRegistry,
	sender ConfigSender,
	defaultDurationSeconds int,
	metrics *observability.FleetMetrics,
) *ScreenSyncService {
	return &ScreenSyncService{
		screenRepo:      screenRepo,
		campaignRepo:    campaignRepo,
		assetSync:       assetSync,
		registry:        registry,
		sender:          sender,
		defaultDuration: defaultDurationSeconds,
		metrics:         metrics,
		logger:          observability.WithField("component", "screen_sync"),
	}
}

// SyncScreens pushes to each screen independently. Ids are deduplicated,
// and one screen's failure never aborts the others.
func (s *ScreenSyncService) SyncScreens(ctx context.Context, screenIDs []string) {
	for _, screenID := range dedupe(screenIDs) {
		if err := s.SyncScreen(ctx, screenID); err != nil {
			s.logger.Errorf("Push to screen %s failed: %v", screenID, err)
		}
	}
}

// SyncScreen pushes the full desired state for one screen. A screen that
// cannot be loaded or was never approved is logged and skipped, not an
// error. Offline screens get no live-channel sends, but their sync status
// records are still reconciled so the next connect starts from fresh state.
func (s *ScreenSyncService) SyncScreen(ctx context.Context, screenID string) error {
	screen, err := s.screenRepo.GetByID(ctx, screenID)
	if err != nil {
		return err
	}
	if screen == nil {
		s.logger.Warnf("Screen %s not found, skipping push", screenID)
		return nil
	}
	if screen.PrincipalID == nil {
		s.logger.Warnf("Screen %s has no principal, skipping push", screenID)
		return nil
	}
	identity := *screen.PrincipalID

	campaigns, err := s.campaignRepo.GetAssignedToScreen(ctx, screenID)
	if err != nil {
		return err
	}

	config := s.buildConfiguration(screen, campaigns)
	online := s.registry.IsOnline(identity)

	s.logger.Infof("Pushing to screen %s (%s): %d campaigns, online=%v",
		screen.ID, screen.Name, len(config.Campaigns), online)

	if online {
		s.sender.SendToScreen(identity, HubMessage{
			Type:    MsgTypeConfigurationUpdate,
			Payload: config,
		})
		if s.metrics != nil {
			s.metrics.RecordConfigPush(ctx, screen.ID, MsgTypeConfigurationUpdate)
		}
	}

	// Reconcile status records against the required set: prune first so
	// stale and newly-required records never coexist within a push cycle.
	requiredAssetIDs := collectAssetIDs(campaigns)
	if err := s.assetSync.Prune(ctx, screenID, requiredAssetIDs); err != nil {
		return err
	}
	if err := s.assetSync.Initialize(ctx, screenID, requiredAssetIDs); err != nil {
		return err
	}

	manifest, err := s.assetSync.GetCampaignsToSync(ctx, screenID)
	if err != nil {
		return err
	}
	if online {
		s.sender.SendToScreen(identity, HubMessage{
			Type:    MsgTypeStartAssetSync,
			Payload: manifest,
		})
		if s.metrics != nil {
			s.metrics.RecordConfigPush(ctx, screen.ID, MsgTypeStartAssetSync)
		}
	}

	s.logger.Infof("Push complete for screen %s: %d campaigns, %d required assets",
		screen.ID, len(manifest), len(requiredAssetIDs))
	return nil
}

// GetConfiguration computes the current desired configuration for a screen
// without pushing it. Used by screens that poll after a reconnect.
func (s *ScreenSyncService) GetConfiguration(ctx context.Context, screenID string) (*models.ScreenConfiguration, error) {
	screen, err := s.screenRepo.GetByID(ctx, screenID)
	if err != nil {
		return nil, err
	}
	if screen == nil {
		return nil, models.ErrScreenNotFound
	}
	campaigns, err := s.campaignRepo.GetAssignedToScreen(ctx, screenID)
	if err != nil {
		return nil, err
	}
	config := s.buildConfiguration(screen, campaigns)
	return &config, nil
}

func (s *ScreenSyncService) buildConfiguration(screen *models.Screen, campaigns []*models.Campaign) models.ScreenConfiguration {
	details := make([]models.CampaignDetail, 0, len(campaigns))
	for _, campaign := range campaigns {
		assets := make([]models.CampaignAssetDetail, 0, len(campaign.Assets))
		for _, ca := range campaign.Assets {
			if ca.Asset == nil {
				continue
			}
			assets = append(assets, models.CampaignAssetDetail{
				ID:               ca.ID,
				AssetID:          ca.AssetID,
				Name:             ca.Asset.Name,
				Type:             string(ca.Asset.Type),
				Source:           ca.Asset.Source,
				Position:         ca.Position,
				DurationOverride: ca.DurationSeconds,
				ResolvedDuration: s.ResolveAssetDuration(ca.Asset, ca.DurationSeconds),
				IsMuted:          ca.Asset.IsMuted,
			})
		}
		details = append(details, models.CampaignDetail{
			ID:          campaign.ID,
			Name:        campaign.Name,
			Description: campaign.Description,
			Assets:      assets,
		})
	}

	return models.ScreenConfiguration{
		ScreenID:         screen.ID,
		ScreenName:       screen.Name,
		Description:      screen.Description,
		Location:         screen.Location,
		ApprovalStatus:   string(screen.ApprovalStatus),
		ResolutionWidth:  screen.ResolutionWidth,
		ResolutionHeight: screen.ResolutionHeight,
		Campaigns:        details,
	}
}

// ResolveAssetDuration applies the override > intrinsic > default precedence.
// Intrinsic duration only counts for videos; the same rule runs on push and
// on resync so both sides agree.
func (s *ScreenSyncService) ResolveAssetDuration(asset *models.Asset, override *int) int {
	if override != nil && *override > 0 {
		return *override
	}
	if asset.Type == models.AssetVideo && asset.DurationSeconds != nil && *asset.DurationSeconds > 0 {
		return *asset.DurationSeconds
	}
	return s.defaultDuration
}

func collectAssetIDs(campaigns []*models.Campaign) []string {
	var ids []string
	for _, campaign := range campaigns {
		for _, ca := range campaign.Assets {
			ids = append(ids, ca.AssetID)
		}
	}
	return dedupe(ids)
}
