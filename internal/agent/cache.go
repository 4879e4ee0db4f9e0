package agent

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/signcast/server/internal/models"
)

// Cache is the agent's local SQLite store. It mirrors the campaign and
// asset metadata the server pushed last, plus which asset files have been
// downloaded and where they live on disk. The player reads its playlist
// from here so playback survives server outages.
type Cache struct {
	db *sql.DB
}

// CachedAsset is one asset row in the local store
type CachedAsset struct {
	ID            string
	Name          string
	Type          string
	Source        string
	FileSizeBytes *int64
	LocalPath     *string
	DownloadedAt  *time.Time
}

// PlaylistItem is one slot of a campaign's playlist: the cached asset plus
// the server-resolved playback duration for this slot
type PlaylistItem struct {
	CachedAsset
	DurationSeconds int
}

// PlaylistEntry is one campaign with its locally known assets, in the
// order the server sent them
type PlaylistEntry struct {
	CampaignID   string
	CampaignName string
	Assets       []PlaylistItem
}

// OpenCache opens (and migrates) the local store at the given path
func OpenCache(dbPath string) (*Cache, error) {
	// Manifest and configuration applies can run on different goroutines;
	// the busy timeout keeps a concurrent write transaction from surfacing
	// as "database is locked"
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := createCacheTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db}, nil
}

func createCacheTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		source TEXT NOT NULL,
		file_size_bytes INTEGER,
		local_path TEXT,
		downloaded_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS campaign_assets (
		campaign_id TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (campaign_id, asset_id),
		FOREIGN KEY (campaign_id) REFERENCES campaigns(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_campaign_assets_campaign ON campaign_assets(campaign_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache tables: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

// ApplyManifest replaces the cached campaign set with the given manifest.
// Asset download state is preserved for assets that stay in the set.
func (c *Cache) ApplyManifest(ctx context.Context, manifest []models.CampaignSyncInfo) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Durations arrive on the configuration push, which can land before or
	// after the manifest. Carry them over for slots that survive the rebuild.
	durations, err := loadSlotDurations(ctx, tx)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM campaign_assets"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM campaigns"); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, campaign := range manifest {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO campaigns (id, name, updated_at) VALUES ($1, $2, $3)",
			campaign.CampaignID, campaign.CampaignName, now,
		); err != nil {
			return err
		}

		for position, asset := range campaign.Assets {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO assets (id, name, type, source, file_size_bytes)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					type = excluded.type,
					source = excluded.source,
					file_size_bytes = excluded.file_size_bytes`,
				asset.AssetID, asset.Name, asset.Type, asset.Source, asset.FileSizeBytes,
			); err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO campaign_assets (campaign_id, asset_id, position, duration_seconds) VALUES ($1, $2, $3, $4)",
				campaign.CampaignID, asset.AssetID, position,
				durations[slotKey{campaign.CampaignID, asset.AssetID}],
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

type slotKey struct {
	campaignID string
	assetID    string
}

func loadSlotDurations(ctx context.Context, tx *sql.Tx) (map[slotKey]int, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT campaign_id, asset_id, duration_seconds FROM campaign_assets")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	durations := make(map[slotKey]int)
	for rows.Next() {
		var key slotKey
		var seconds int
		if err := rows.Scan(&key.campaignID, &key.assetID, &seconds); err != nil {
			return nil, err
		}
		durations[key] = seconds
	}
	return durations, rows.Err()
}

// ApplyConfiguration rebuilds the cached campaign set from a pushed
// configuration. The manifest carries no durations, so this is what gives
// the local playlist its timing. Configuration and manifest can land in
// either order; each rebuild keeps the columns only the other one carries.
func (c *Cache) ApplyConfiguration(ctx context.Context, cfg models.ScreenConfiguration) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM campaign_assets"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM campaigns"); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, campaign := range cfg.Campaigns {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO campaigns (id, name, updated_at) VALUES ($1, $2, $3)",
			campaign.ID, campaign.Name, now,
		); err != nil {
			return err
		}

		for _, item := range campaign.Assets {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO assets (id, name, type, source)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					type = excluded.type,
					source = excluded.source`,
				item.AssetID, item.Name, item.Type, item.Source,
			); err != nil {
				return err
			}

			if _, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO campaign_assets (campaign_id, asset_id, position, duration_seconds) VALUES ($1, $2, $3, $4)",
				campaign.ID, item.AssetID, item.Position, item.ResolvedDuration,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// MarkDownloaded records a completed download for an asset
func (c *Cache) MarkDownloaded(ctx context.Context, assetID, localPath string) error {
	_, err := c.db.ExecContext(ctx,
		"UPDATE assets SET local_path = $1, downloaded_at = $2 WHERE id = $3",
		localPath, time.Now().UTC(), assetID,
	)
	return err
}

// LocalPath returns the recorded local path for an asset, if any
func (c *Cache) LocalPath(ctx context.Context, assetID string) (string, error) {
	var localPath sql.NullString
	err := c.db.QueryRowContext(ctx,
		"SELECT local_path FROM assets WHERE id = $1", assetID,
	).Scan(&localPath)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !localPath.Valid {
		return "", nil
	}
	return localPath.String, nil
}

// GetAsset returns one cached asset, nil if unknown
func (c *Cache) GetAsset(ctx context.Context, assetID string) (*CachedAsset, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, name, type, source, file_size_bytes, local_path, downloaded_at
		FROM assets WHERE id = $1`, assetID)
	return scanCachedAsset(row)
}

// Playlist returns the cached campaigns with their assets in position order
func (c *Cache) Playlist(ctx context.Context) ([]PlaylistEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT id, name FROM campaigns ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []PlaylistEntry
	for rows.Next() {
		var entry PlaylistEntry
		if err := rows.Scan(&entry.CampaignID, &entry.CampaignName); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		assets, err := c.campaignAssets(ctx, entries[i].CampaignID)
		if err != nil {
			return nil, err
		}
		entries[i].Assets = assets
	}

	return entries, nil
}

func (c *Cache) campaignAssets(ctx context.Context, campaignID string) ([]PlaylistItem, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.type, a.source, a.file_size_bytes, a.local_path, a.downloaded_at,
			ca.duration_seconds
		FROM assets a
		JOIN campaign_assets ca ON ca.asset_id = a.id
		WHERE ca.campaign_id = $1
		ORDER BY ca.position ASC`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PlaylistItem
	for rows.Next() {
		var item PlaylistItem
		var fileSize sql.NullInt64
		var localPath sql.NullString
		var downloadedAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.Name, &item.Type, &item.Source,
			&fileSize, &localPath, &downloadedAt, &item.DurationSeconds); err != nil {
			return nil, err
		}
		if fileSize.Valid {
			item.FileSizeBytes = &fileSize.Int64
		}
		if localPath.Valid {
			item.LocalPath = &localPath.String
		}
		if downloadedAt.Valid {
			item.DownloadedAt = &downloadedAt.Time
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanCachedAsset(row interface{ Scan(...interface{}) error }) (*CachedAsset, error) {
	var asset CachedAsset
	var fileSize sql.NullInt64
	var localPath sql.NullString
	var downloadedAt sql.NullTime

	err := row.Scan(&asset.ID, &asset.Name, &asset.Type, &asset.Source,
		&fileSize, &localPath, &downloadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if fileSize.Valid {
		asset.FileSizeBytes = &fileSize.Int64
	}
	if localPath.Valid {
		asset.LocalPath = &localPath.String
	}
	if downloadedAt.Valid {
		asset.DownloadedAt = &downloadedAt.Time
	}
	return &asset, nil
}
