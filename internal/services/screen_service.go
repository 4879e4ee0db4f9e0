package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/observability"
	"github.com/signcast/server/internal/repository"
)

const screenIdentifierLength = 8

// ScreenService handles screen registration and the approval lifecycle
type ScreenService struct {
	screenRepo repository.ScreenRepo
	logger     *observability.Logger
}

// NewScreenService creates a new ScreenService
func NewScreenService(screenRepo repository.ScreenRepo) *ScreenService {
	return &ScreenService{
		screenRepo: screenRepo,
		logger:     observability.WithField("component", "screens"),
	}
}

// Register creates a Pending screen with a short unique identifier the
// device keeps to poll its approval state
func (s *ScreenService) Register(ctx context.Context, req models.RegisterScreenRequest) (*models.RegisterScreenResponse, error) {
	identifier, err := s.uniqueIdentifier(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.DeviceName)
	if name == "" {
		count, err := s.screenRepo.Count(ctx)
		if err != nil {
			return nil, err
		}
		name = fmt.Sprintf("Screen %d", count+1)
	}

	screen := models.NewScreen(name, identifier, req.ResolutionWidth, req.ResolutionHeight)
	if err := s.screenRepo.Add(ctx, screen); err != nil {
		return nil, err
	}

	s.logger.Infof("New screen registered: %s (%s)", screen.ID, identifier)
	return &models.RegisterScreenResponse{
		ScreenIdentifier: identifier,
		ScreenName:       screen.Name,
	}, nil
}

func (s *ScreenService) uniqueIdentifier(ctx context.Context) (string, error) {
	for {
		buf := make([]byte, screenIdentifierLength/2)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		identifier := hex.EncodeToString(buf)

		exists, err := s.screenRepo.IdentifierExists(ctx, identifier)
		if err != nil {
			return "", err
		}
		if !exists {
			return identifier, nil
		}
	}
}

// Approve assigns a principal to the screen and issues a bearer token.
// Re-approving an already-approved screen is idempotent: the existing
// principal is kept and no new token is issued.
func (s *ScreenService) Approve(ctx context.Context, id string) (*models.ApproveScreenResponse, error) {
	screen, err := s.screenRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if screen == nil {
		return nil, models.ErrScreenNotFound
	}

	if screen.IsApproved() {
		s.logger.Infof("Screen %s already approved, keeping principal", id)
		return &models.ApproveScreenResponse{Screen: screen.ToDetailsResponse()}, nil
	}

	principalID := uuid.New().String()
	secret, tokenHash, err := newScreenSecret()
	if err != nil {
		return nil, err
	}
	token := principalID + "." + secret

	if err := s.screenRepo.SetApproval(ctx, id, models.ApprovalApproved, &principalID, &tokenHash); err != nil {
		return nil, err
	}

	screen.ApprovalStatus = models.ApprovalApproved
	screen.PrincipalID = &principalID

	s.logger.Infof("Screen %s approved, principal %s assigned", id, principalID)
	return &models.ApproveScreenResponse{
		Screen: screen.ToDetailsResponse(),
		Token:  token,
	}, nil
}

// Reject flips the screen to Rejected without assigning a principal
func (s *ScreenService) Reject(ctx context.Context, id string) (*models.ScreenDetailsResponse, error) {
	screen, err := s.screenRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if screen == nil {
		return nil, models.ErrScreenNotFound
	}

	if err := s.screenRepo.SetApproval(ctx, id, models.ApprovalRejected, screen.PrincipalID, screen.TokenHash); err != nil {
		return nil, err
	}

	screen.ApprovalStatus = models.ApprovalRejected
	resp := screen.ToDetailsResponse()
	s.logger.Infof("Screen %s rejected", id)
	return &resp, nil
}

// List returns a paginated screen listing with optional status filtering
func (s *ScreenService) List(ctx context.Context, page, pageSize int, status *models.ApprovalStatus, sortBy string) (*models.PagedScreensResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	screens, total, err := s.screenRepo.List(ctx, page, pageSize, status, strings.ToLower(sortBy))
	if err != nil {
		return nil, err
	}

	items := make([]models.ScreenDetailsResponse, len(screens))
	for i, screen := range screens {
		items[i] = screen.ToDetailsResponse()
	}

	return &models.PagedScreensResponse{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Items:    items,
	}, nil
}

// Get returns one screen's admin view
func (s *ScreenService) Get(ctx context.Context, id string) (*models.ScreenDetailsResponse, error) {
	screen, err := s.screenRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if screen == nil {
		return nil, models.ErrScreenNotFound
	}
	resp := screen.ToDetailsResponse()
	return &resp, nil
}

// GetModel returns one screen's full record, including auth fields the
// admin view hides
func (s *ScreenService) GetModel(ctx context.Context, id string) (*models.Screen, error) {
	return s.screenRepo.GetByID(ctx, id)
}

// Update applies a partial update; empty fields are left untouched
func (s *ScreenService) Update(ctx context.Context, id string, req models.UpdateScreenRequest) (*models.ScreenDetailsResponse, error) {
	screen, err := s.screenRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if screen == nil {
		return nil, models.ErrScreenNotFound
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		screen.Name = name
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		screen.Description = &desc
	}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		screen.Location = loc
	}

	if err := s.screenRepo.Update(ctx, screen); err != nil {
		return nil, err
	}
	resp := screen.ToDetailsResponse()
	return &resp, nil
}

// Authenticate resolves a bearer token to the screen that owns it
func (s *ScreenService) Authenticate(ctx context.Context, token string) (*models.Screen, error) {
	principalID, rest, ok := splitToken(token)
	if !ok {
		return nil, nil
	}

	screen, err := s.screenRepo.GetByPrincipalID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if screen == nil || screen.TokenHash == nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(*screen.TokenHash), []byte(rest)) != nil {
		return nil, nil
	}
	return screen, nil
}

// Screen tokens embed the principal id so authentication is one indexed
// lookup plus one hash comparison: "<principal>.<secret>". Only the secret's
// bcrypt hash is stored.
func newScreenSecret() (secret, secretHash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	secret = hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return secret, string(hash), nil
}

func splitToken(token string) (principalID, secret string, ok bool) {
	i := strings.IndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return "", "", false
	}
	return token[:i], token[i+1:], true
}
