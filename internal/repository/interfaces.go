package repository

import (
	"context"

	"github.com/signcast/server/internal/models"
)

// ScreenRepo defines the interface for screen persistence operations
type ScreenRepo interface {
	GetByID(ctx context.Context, id string) (*models.Screen, error)
	GetByPrincipalID(ctx context.Context, principalID string) (*models.Screen, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.Screen, error)
	IdentifierExists(ctx context.Context, identifier string) (bool, error)
	List(ctx context.Context, page, pageSize int, status *models.ApprovalStatus, sortBy string) ([]*models.Screen, int, error)
	Add(ctx context.Context, screen *models.Screen) error
	Update(ctx context.Context, screen *models.Screen) error
	SetApproval(ctx context.Context, id string, status models.ApprovalStatus, principalID, tokenHash *string) error
	SetActive(ctx context.Context, id string, active bool) error
	Count(ctx context.Context) (int, error)
}

// CampaignRepo defines the interface for campaign persistence operations
type CampaignRepo interface {
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	GetAll(ctx context.Context) ([]*models.Campaign, error)
	// GetAssignedToScreen returns the screen's campaigns with their assets
	// in position order, asset metadata included
	GetAssignedToScreen(ctx context.Context, screenID string) ([]*models.Campaign, error)
	// GetScreenIDsForCampaign returns ids of every screen the campaign is
	// assigned to, for fan-out pushes after a campaign edit
	GetScreenIDsForCampaign(ctx context.Context, campaignID string) ([]string, error)
	Assign(ctx context.Context, campaignID, screenID string) error
	Unassign(ctx context.Context, campaignID, screenID string) error
}

// AssetRepo defines the interface for asset persistence operations
type AssetRepo interface {
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	GetAll(ctx context.Context) ([]*models.Asset, error)
}

// SyncStatusRepo defines the interface for per-(screen, asset) sync state
type SyncStatusRepo interface {
	Get(ctx context.Context, screenID, assetID string) (*models.SyncStatusRecord, error)
	GetForScreen(ctx context.Context, screenID string) ([]*models.SyncStatusRecord, error)
	Create(ctx context.Context, record *models.SyncStatusRecord) error
	Update(ctx context.Context, record *models.SyncStatusRecord) error
	// DeleteNotIn removes every record for the screen whose asset id is not
	// in keep. An empty keep set removes all records for the screen.
	DeleteNotIn(ctx context.Context, screenID string, keep []string) (int, error)
}
