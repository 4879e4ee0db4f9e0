package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the admin approval state of a screen
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "Pending"
	ApprovalApproved ApprovalStatus = "Approved"
	ApprovalRejected ApprovalStatus = "Rejected"
)

// ParseApprovalStatus parses a status token; ok is false for unknown tokens
func ParseApprovalStatus(s string) (ApprovalStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return ApprovalPending, true
	case "approved":
		return ApprovalApproved, true
	case "rejected":
		return ApprovalRejected, true
	default:
		return "", false
	}
}

// Screen represents a registered display device
type Screen struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      *string        `json:"description,omitempty"`
	Location         string         `json:"location"`
	ScreenIdentifier string         `json:"screenIdentifier"`
	ApprovalStatus   ApprovalStatus `json:"approvalStatus"`
	PrincipalID      *string        `json:"-"` // set on approval, never exposed
	TokenHash        *string        `json:"-"`
	ResolutionWidth  *int           `json:"resolutionWidth,omitempty"`
	ResolutionHeight *int           `json:"resolutionHeight,omitempty"`
	IsActive         bool           `json:"isActive"`
	LastSeenAt       *time.Time     `json:"lastSeenAt,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// NewScreen creates a screen in the Pending state
func NewScreen(name, screenIdentifier string, resolutionWidth, resolutionHeight *int) *Screen {
	now := time.Now().UTC()
	return &Screen{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(name),
		ScreenIdentifier: screenIdentifier,
		ApprovalStatus:   ApprovalPending,
		ResolutionWidth:  resolutionWidth,
		ResolutionHeight: resolutionHeight,
		LastSeenAt:       &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IsApproved reports whether the screen has been approved and holds a principal
func (s *Screen) IsApproved() bool {
	return s.ApprovalStatus == ApprovalApproved && s.PrincipalID != nil
}

// Screen errors
var (
	ErrScreenNotFound   = ScreenError{"screen not found"}
	ErrEmptyScreenName  = ScreenError{"screen name cannot be empty"}
	ErrScreenRejected   = ScreenError{"screen registration was rejected"}
	ErrScreenNotPending = ScreenError{"screen is not pending approval"}
)

type ScreenError struct {
	Message string
}

func (e ScreenError) Error() string {
	return e.Message
}
