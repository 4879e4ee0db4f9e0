package repository

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/signcast/server/internal/models"
)

// ScreenRepository implements ScreenRepo for PostgreSQL/SQLite
type ScreenRepository struct {
	db *sql.DB
}

// NewScreenRepository creates a new ScreenRepository
func NewScreenRepository(db *sql.DB) *ScreenRepository {
	return &ScreenRepository{db: db}
}

const screenColumns = `id, name, description, location, screen_identifier, approval_status,
	principal_id, token_hash, resolution_width, resolution_height, is_active,
	last_seen_at, created_at, updated_at`

func scanScreen(row interface{ Scan(...interface{}) error }) (*models.Screen, error) {
	var s models.Screen
	var status string
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Location, &s.ScreenIdentifier, &status,
		&s.PrincipalID, &s.TokenHash, &s.ResolutionWidth, &s.ResolutionHeight, &s.IsActive,
		&s.LastSeenAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.ApprovalStatus = models.ApprovalStatus(status)
	return &s, nil
}

func (r *ScreenRepository) GetByID(ctx context.Context, id string) (*models.Screen, error) {
	query := `SELECT ` + screenColumns + ` FROM screens WHERE id = $1`
	return scanScreen(r.db.QueryRowContext(ctx, query, id))
}

func (r *ScreenRepository) GetByPrincipalID(ctx context.Context, principalID string) (*models.Screen, error) {
	query := `SELECT ` + screenColumns + ` FROM screens WHERE principal_id = $1`
	return scanScreen(r.db.QueryRowContext(ctx, query, principalID))
}

func (r *ScreenRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Screen, error) {
	query := `SELECT ` + screenColumns + ` FROM screens WHERE screen_identifier = $1`
	return scanScreen(r.db.QueryRowContext(ctx, query, identifier))
}

func (r *ScreenRepository) IdentifierExists(ctx context.Context, identifier string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM screens WHERE screen_identifier = $1", identifier,
	).Scan(&count)
	return count > 0, err
}

func (r *ScreenRepository) List(ctx context.Context, page, pageSize int, status *models.ApprovalStatus, sortBy string) ([]*models.Screen, int, error) {
	where := ""
	args := []interface{}{}
	if status != nil {
		where = " WHERE approval_status = $1"
		args = append(args, string(*status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM screens"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	switch sortBy {
	case "name":
		order = "name ASC"
	case "location":
		order = "location ASC"
	case "status":
		order = "approval_status ASC, name ASC"
	case "lastseen":
		order = "last_seen_at DESC"
	}

	query := `SELECT ` + screenColumns + ` FROM screens` + where +
		` ORDER BY ` + order +
		` LIMIT ` + strconv.Itoa(pageSize) + ` OFFSET ` + strconv.Itoa((page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var screens []*models.Screen
	for rows.Next() {
		screen, err := scanScreen(rows)
		if err != nil {
			return nil, 0, err
		}
		screens = append(screens, screen)
	}
	return screens, total, rows.Err()
}

func (r *ScreenRepository) Add(ctx context.Context, screen *models.Screen) error {
	query := `INSERT INTO screens (id, name, description, location, screen_identifier,
		approval_status, principal_id, token_hash, resolution_width, resolution_height,
		is_active, last_seen_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(ctx, query,
		screen.ID, screen.Name, screen.Description, screen.Location, screen.ScreenIdentifier,
		string(screen.ApprovalStatus), screen.PrincipalID, screen.TokenHash,
		screen.ResolutionWidth, screen.ResolutionHeight, screen.IsActive,
		screen.LastSeenAt, screen.CreatedAt, screen.UpdatedAt,
	)
	return err
}

func (r *ScreenRepository) Update(ctx context.Context, screen *models.Screen) error {
	query := `UPDATE screens SET name = $2, description = $3, location = $4, updated_at = $5
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query,
		screen.ID, screen.Name, screen.Description, screen.Location, time.Now().UTC(),
	)
	return err
}

func (r *ScreenRepository) SetApproval(ctx context.Context, id string, status models.ApprovalStatus, principalID, tokenHash *string) error {
	query := `UPDATE screens SET approval_status = $2, principal_id = $3, token_hash = $4, updated_at = $5
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, string(status), principalID, tokenHash, time.Now().UTC())
	return err
}

// SetActive flips the liveness flag and stamps last-seen
func (r *ScreenRepository) SetActive(ctx context.Context, id string, active bool) error {
	now := time.Now().UTC()
	query := `UPDATE screens SET is_active = $2, last_seen_at = $3, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, active, now)
	return err
}

func (r *ScreenRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM screens").Scan(&count)
	return count, err
}
