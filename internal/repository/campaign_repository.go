package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/signcast/server/internal/models"
)

// CampaignRepository implements CampaignRepo for PostgreSQL/SQLite
type CampaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository creates a new CampaignRepository
func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM campaigns WHERE id = $1`

	var c models.Campaign
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	assets, err := r.loadAssets(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Assets = assets
	return &c, nil
}

func (r *CampaignRepository) GetAll(ctx context.Context) ([]*models.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range campaigns {
		assets, err := r.loadAssets(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Assets = assets
	}
	return campaigns, nil
}

// GetAssignedToScreen returns the screen's campaigns with their assets in
// position order, asset metadata included
func (r *CampaignRepository) GetAssignedToScreen(ctx context.Context, screenID string) ([]*models.Campaign, error) {
	query := `SELECT c.id, c.name, c.description, c.created_at, c.updated_at
		FROM campaigns c
		JOIN campaign_assignments ca ON ca.campaign_id = c.id
		WHERE ca.screen_id = $1
		ORDER BY ca.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		var c models.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range campaigns {
		assets, err := r.loadAssets(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Assets = assets
	}
	return campaigns, nil
}

func (r *CampaignRepository) loadAssets(ctx context.Context, campaignID string) ([]models.CampaignAsset, error) {
	query := `SELECT ca.id, ca.campaign_id, ca.asset_id, ca.position, ca.duration_seconds,
		a.id, a.name, a.description, a.type, a.source, a.file_size_bytes,
		a.duration_seconds, a.is_muted, a.created_at, a.updated_at
		FROM campaign_assets ca
		JOIN assets a ON a.id = ca.asset_id
		WHERE ca.campaign_id = $1
		ORDER BY ca.position ASC`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.CampaignAsset
	for rows.Next() {
		var item models.CampaignAsset
		var asset models.Asset
		var assetType string
		if err := rows.Scan(
			&item.ID, &item.CampaignID, &item.AssetID, &item.Position, &item.DurationSeconds,
			&asset.ID, &asset.Name, &asset.Description, &assetType, &asset.Source,
			&asset.FileSizeBytes, &asset.DurationSeconds, &asset.IsMuted,
			&asset.CreatedAt, &asset.UpdatedAt,
		); err != nil {
			return nil, err
		}
		asset.Type = models.AssetType(assetType)
		item.Asset = &asset
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetScreenIDsForCampaign returns ids of every screen the campaign is
// assigned to
func (r *CampaignRepository) GetScreenIDsForCampaign(ctx context.Context, campaignID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT screen_id FROM campaign_assignments WHERE campaign_id = $1`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *CampaignRepository) Assign(ctx context.Context, campaignID, screenID string) error {
	query := `INSERT INTO campaign_assignments (id, campaign_id, screen_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (campaign_id, screen_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), campaignID, screenID, time.Now().UTC())
	return err
}

func (r *CampaignRepository) Unassign(ctx context.Context, campaignID, screenID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM campaign_assignments WHERE campaign_id = $1 AND screen_id = $2`,
		campaignID, screenID)
	return err
}
