package services

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/signcast/server/internal/repository"
)

// setupTestDB opens an in-memory database with the full schema
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedScreen(t *testing.T, db *sql.DB, id, name, principalID string) {
	t.Helper()
	var principal interface{}
	status := "Pending"
	if principalID != "" {
		principal = principalID
		status = "Approved"
	}
	_, err := db.Exec(`
		INSERT INTO screens (id, name, screen_identifier, approval_status, principal_id)
		VALUES ($1, $2, $3, $4, $5)`,
		id, name, "ident-"+id, status, principal)
	require.NoError(t, err)
}

func seedAsset(t *testing.T, db *sql.DB, id, name, assetType, source string, durationSeconds *int) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO assets (id, name, type, source, duration_seconds)
		VALUES ($1, $2, $3, $4, $5)`,
		id, name, assetType, source, durationSeconds)
	require.NoError(t, err)
}

func seedCampaign(t *testing.T, db *sql.DB, id, name string) {
	t.Helper()
	_, err := db.Exec("INSERT INTO campaigns (id, name) VALUES ($1, $2)", id, name)
	require.NoError(t, err)
}

func seedCampaignAsset(t *testing.T, db *sql.DB, campaignID, assetID string, position int, durationOverride *int) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO campaign_assets (id, campaign_id, asset_id, position, duration_seconds)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), campaignID, assetID, position, durationOverride)
	require.NoError(t, err)
}

func seedAssignment(t *testing.T, db *sql.DB, campaignID, screenID string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO campaign_assignments (id, campaign_id, screen_id)
		VALUES ($1, $2, $3)`,
		uuid.New().String(), campaignID, screenID)
	require.NoError(t, err)
}

func intPtr(v int) *int {
	return &v
}
