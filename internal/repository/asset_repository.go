package repository

import (
	"context"
	"database/sql"

	"github.com/signcast/server/internal/models"
)

// AssetRepository implements AssetRepo for PostgreSQL/SQLite
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `id, name, description, type, source, file_size_bytes,
	duration_seconds, is_muted, created_at, updated_at`

func (r *AssetRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	var a models.Asset
	var assetType string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.Name, &a.Description, &assetType, &a.Source,
		&a.FileSizeBytes, &a.DurationSeconds, &a.IsMuted, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Type = models.AssetType(assetType)
	return &a, nil
}

func (r *AssetRepository) GetAll(ctx context.Context) ([]*models.Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*models.Asset
	for rows.Next() {
		var a models.Asset
		var assetType string
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Description, &assetType, &a.Source,
			&a.FileSizeBytes, &a.DurationSeconds, &a.IsMuted, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		a.Type = models.AssetType(assetType)
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}
