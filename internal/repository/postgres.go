package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL database connection
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createPostgresTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS screens (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		location TEXT NOT NULL DEFAULT '',
		screen_identifier TEXT UNIQUE NOT NULL,
		approval_status TEXT NOT NULL DEFAULT 'Pending',
		principal_id TEXT,
		token_hash TEXT,
		resolution_width INTEGER,
		resolution_height INTEGER,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		last_seen_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_screens_identifier ON screens(screen_identifier);
	CREATE INDEX IF NOT EXISTS idx_screens_principal ON screens(principal_id);
	CREATE INDEX IF NOT EXISTS idx_screens_status ON screens(approval_status);

	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		type TEXT NOT NULL,
		source TEXT NOT NULL,
		file_size_bytes BIGINT,
		duration_seconds INTEGER,
		is_muted BOOLEAN,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS campaign_assets (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		asset_id TEXT NOT NULL REFERENCES assets(id),
		position INTEGER NOT NULL,
		duration_seconds INTEGER,
		UNIQUE(campaign_id, asset_id)
	);

	CREATE INDEX IF NOT EXISTS idx_campaign_assets_campaign ON campaign_assets(campaign_id);
	CREATE INDEX IF NOT EXISTS idx_campaign_assets_asset ON campaign_assets(asset_id);

	CREATE TABLE IF NOT EXISTS campaign_assignments (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		screen_id TEXT NOT NULL REFERENCES screens(id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		UNIQUE(campaign_id, screen_id)
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_screen ON campaign_assignments(screen_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_campaign ON campaign_assignments(campaign_id);

	CREATE TABLE IF NOT EXISTS asset_sync_statuses (
		screen_id TEXT NOT NULL REFERENCES screens(id) ON DELETE CASCADE,
		asset_id TEXT NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
		sync_state TEXT NOT NULL DEFAULT 'Pending',
		progress INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		last_updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		PRIMARY KEY (screen_id, asset_id)
	);

	CREATE INDEX IF NOT EXISTS idx_sync_statuses_screen ON asset_sync_statuses(screen_id);
	`

	_, err := db.Exec(schema)
	return err
}
