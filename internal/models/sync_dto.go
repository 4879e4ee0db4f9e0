package models

// ScreenConfiguration is the full desired state unicast to a connected
// screen whenever its assignments or campaigns change
type ScreenConfiguration struct {
	ScreenID         string           `json:"screenId"`
	ScreenName       string           `json:"screenName"`
	Description      *string          `json:"description,omitempty"`
	Location         string           `json:"location"`
	ApprovalStatus   string           `json:"approvalStatus"`
	ResolutionWidth  *int             `json:"resolutionWidth,omitempty"`
	ResolutionHeight *int             `json:"resolutionHeight,omitempty"`
	Campaigns        []CampaignDetail `json:"campaigns"`
}

// CampaignDetail is one campaign inside a ScreenConfiguration
type CampaignDetail struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description *string               `json:"description,omitempty"`
	Assets      []CampaignAssetDetail `json:"assets"`
}

// CampaignAssetDetail is one asset entry inside a CampaignDetail, in
// position order with the resolved playback duration
type CampaignAssetDetail struct {
	ID               string `json:"id"`
	AssetID          string `json:"assetId"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Source           string `json:"source"`
	Position         int    `json:"position"`
	DurationOverride *int   `json:"durationOverride,omitempty"`
	ResolvedDuration int    `json:"resolvedDuration"`
	IsMuted          *bool  `json:"isMuted,omitempty"`
}

// CampaignSyncInfo is the download-relevant projection of a campaign sent
// in the start-sync manifest
type CampaignSyncInfo struct {
	CampaignID   string              `json:"campaignId"`
	CampaignName string              `json:"campaignName"`
	Assets       []AssetDownloadInfo `json:"assets"`
}

// AssetDownloadInfo carries just the fields a screen needs to fetch an asset
type AssetDownloadInfo struct {
	AssetID       string `json:"assetId"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Source        string `json:"source"`
	FileSizeBytes *int64 `json:"fileSizeBytes,omitempty"`
}

// UpdateSyncStatusRequest is a screen's progress report for one asset
type UpdateSyncStatusRequest struct {
	AssetID      string  `json:"assetId"`
	SyncState    string  `json:"syncState"`
	Progress     int     `json:"progress"`
	ErrorMessage *string `json:"errorMessage,omitempty"`
}

// SyncStatusItem is one row of the sync status read endpoint
type SyncStatusItem struct {
	AssetID      string  `json:"assetId"`
	SyncState    string  `json:"syncState"`
	Progress     int     `json:"progress"`
	ErrorMessage *string `json:"errorMessage,omitempty"`
}
