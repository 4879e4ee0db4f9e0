package models

import "time"

// RegisterScreenRequest is the body for screen self-registration
type RegisterScreenRequest struct {
	DeviceName       string `json:"deviceName"`
	ResolutionWidth  *int   `json:"resolutionWidth,omitempty"`
	ResolutionHeight *int   `json:"resolutionHeight,omitempty"`
}

// RegisterScreenResponse returns the identifier the device keeps to poll
// its approval state
type RegisterScreenResponse struct {
	ScreenIdentifier string `json:"screenIdentifier"`
	ScreenName       string `json:"screenName"`
}

// UpdateScreenRequest is a partial update; empty fields are left untouched
type UpdateScreenRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
}

// ApproveScreenResponse carries the bearer token issued on approval.
// The token is returned exactly once; only its hash is stored.
type ApproveScreenResponse struct {
	Screen ScreenDetailsResponse `json:"screen"`
	Token  string                `json:"token,omitempty"`
}

// ScreenDetailsResponse is the admin-facing view of a screen
type ScreenDetailsResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      *string    `json:"description,omitempty"`
	Location         string     `json:"location"`
	ScreenIdentifier string     `json:"screenIdentifier"`
	ApprovalStatus   string     `json:"approvalStatus"`
	ResolutionWidth  *int       `json:"resolutionWidth,omitempty"`
	ResolutionHeight *int       `json:"resolutionHeight,omitempty"`
	IsActive         bool       `json:"isActive"`
	LastSeenAt       *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// PagedScreensResponse is a paginated screen listing
type PagedScreensResponse struct {
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"pageSize"`
	Items    []ScreenDetailsResponse `json:"items"`
}

// ToDetailsResponse converts a Screen to its admin-facing view
func (s *Screen) ToDetailsResponse() ScreenDetailsResponse {
	return ScreenDetailsResponse{
		ID:               s.ID,
		Name:             s.Name,
		Description:      s.Description,
		Location:         s.Location,
		ScreenIdentifier: s.ScreenIdentifier,
		ApprovalStatus:   string(s.ApprovalStatus),
		ResolutionWidth:  s.ResolutionWidth,
		ResolutionHeight: s.ResolutionHeight,
		IsActive:         s.IsActive,
		LastSeenAt:       s.LastSeenAt,
		CreatedAt:        s.CreatedAt,
	}
}

// ErrorResponse is the generic error body
type ErrorResponse struct {
	Error string `json:"error"`
}
