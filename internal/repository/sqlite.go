package repository

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite database
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	-- Screens table (display devices)
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
		is_active INTEGER NOT NULL DEFAULT 0,
		last_seen_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_screens_identifier ON screens(screen_identifier);
	CREATE INDEX IF NOT EXISTS idx_screens_principal ON screens(principal_id);
	CREATE INDEX IF NOT EXISTS idx_screens_status ON screens(approval_status);

	-- Assets table
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		type TEXT NOT NULL,
		source TEXT NOT NULL,
		file_size_bytes INTEGER,
		duration_seconds INTEGER,
		is_muted INTEGER,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Campaigns table
	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Campaign assets (ordered, with optional duration override)
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

	-- Campaign assignments (campaign <-> screen, many-to-many)
	CREATE TABLE IF NOT EXISTS campaign_assignments (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		screen_id TEXT NOT NULL REFERENCES screens(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(campaign_id, screen_id)
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_screen ON campaign_assignments(screen_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_campaign ON campaign_assignments(campaign_id);

	-- Per-(screen, asset) sync status
	CREATE TABLE IF NOT EXISTS asset_sync_statuses (
		screen_id TEXT NOT NULL REFERENCES screens(id) ON DELETE CASCADE,
		asset_id TEXT NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
		sync_state TEXT NOT NULL DEFAULT 'Pending',
		progress INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		last_updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (screen_id, asset_id)
	);

	CREATE INDEX IF NOT EXISTS idx_sync_statuses_screen ON asset_sync_statuses(screen_id);
	`

	_, err := db.Exec(schema)
	return err
}
