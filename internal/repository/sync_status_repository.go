package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/signcast/server/internal/models"
)

// SyncStatusRepository implements SyncStatusRepo for PostgreSQL/SQLite
type SyncStatusRepository struct {
	db *sql.DB
}

// NewSyncStatusRepository creates a new SyncStatusRepository
func NewSyncStatusRepository(db *sql.DB) *SyncStatusRepository {
	return &SyncStatusRepository{db: db}
}

func (r *SyncStatusRepository) Get(ctx context.Context, screenID, assetID string) (*models.SyncStatusRecord, error) {
	query := `SELECT screen_id, asset_id, sync_state, progress, error_message, last_updated_at, created_at
		FROM asset_sync_statuses WHERE screen_id = $1 AND asset_id = $2`

	var rec models.SyncStatusRecord
	var state string
	err := r.db.QueryRowContext(ctx, query, screenID, assetID).Scan(
		&rec.ScreenID, &rec.AssetID, &state, &rec.Progress,
		&rec.ErrorMessage, &rec.LastUpdatedAt, &rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.State = models.SyncState(state)
	return &rec, nil
}

func (r *SyncStatusRepository) GetForScreen(ctx context.Context, screenID string) ([]*models.SyncStatusRecord, error) {
	query := `SELECT screen_id, asset_id, sync_state, progress, error_message, last_updated_at, created_at
		FROM asset_sync_statuses WHERE screen_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.SyncStatusRecord
	for rows.Next() {
		var rec models.SyncStatusRecord
		var state string
		if err := rows.Scan(
			&rec.ScreenID, &rec.AssetID, &state, &rec.Progress,
			&rec.ErrorMessage, &rec.LastUpdatedAt, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.State = models.SyncState(state)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *SyncStatusRepository) Create(ctx context.Context, record *models.SyncStatusRecord) error {
	query := `INSERT INTO asset_sync_statuses
		(screen_id, asset_id, sync_state, progress, error_message, last_updated_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		record.ScreenID, record.AssetID, string(record.State), record.Progress,
		record.ErrorMessage, record.LastUpdatedAt, record.CreatedAt,
	)
	return err
}

func (r *SyncStatusRepository) Update(ctx context.Context, record *models.SyncStatusRecord) error {
	query := `UPDATE asset_sync_statuses
		SET sync_state = $3, progress = $4, error_message = $5, last_updated_at = $6
		WHERE screen_id = $1 AND asset_id = $2`

	_, err := r.db.ExecContext(ctx, query,
		record.ScreenID, record.AssetID, string(record.State), record.Progress,
		record.ErrorMessage, record.LastUpdatedAt,
	)
	return err
}

// DeleteNotIn removes every record for the screen whose asset id is not in
// keep. An empty keep set removes all records for the screen.
func (r *SyncStatusRepository) DeleteNotIn(ctx context.Context, screenID string, keep []string) (int, error) {
	var result sql.Result
	var err error

	if len(keep) == 0 {
		result, err = r.db.ExecContext(ctx,
			`DELETE FROM asset_sync_statuses WHERE screen_id = $1`, screenID)
	} else {
		placeholders := make([]string, len(keep))
		args := make([]interface{}, 0, len(keep)+1)
		args = append(args, screenID)
		for i, id := range keep {
			placeholders[i] = fmt.Sprintf("$%d", i+2)
			args = append(args, id)
		}
		query := `DELETE FROM asset_sync_statuses WHERE screen_id = $1 AND asset_id NOT IN (` +
			strings.Join(placeholders, ", ") + `)`
		result, err = r.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return 0, err
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}
