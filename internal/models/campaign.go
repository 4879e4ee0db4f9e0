package models

import "time"

// Campaign is an ordered rotation of assets assignable to screens
type Campaign struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Assets are loaded in position order when the campaign is resolved
	Assets []CampaignAsset `json:"assets,omitempty"`
}

// CampaignAsset places an asset in a campaign at a position, with an
// optional per-item duration override
type CampaignAsset struct {
	ID              string `json:"id"`
	CampaignID      string `json:"campaignId"`
	AssetID         string `json:"assetId"`
	Position        int    `json:"position"`
	DurationSeconds *int   `json:"durationSeconds,omitempty"`

	Asset *Asset `json:"asset,omitempty"`
}

// CampaignAssignment links a campaign to a screen (many-to-many)
type CampaignAssignment struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaignId"`
	ScreenID   string    `json:"screenId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Campaign errors
var (
	ErrCampaignNotFound = CampaignError{"campaign not found"}
)

type CampaignError struct {
	Message string
}

func (e CampaignError) Error() string {
	return e.Message
}
