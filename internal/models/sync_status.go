package models

import (
	"strings"
	"time"
)

// SyncState tracks how far a screen has come downloading one asset
type SyncState string

const (
	SyncPending     SyncState = "Pending"
	SyncDownloading SyncState = "Downloading"
	SyncDownloaded  SyncState = "Downloaded"
	SyncFailed      SyncState = "Failed"
)

// ParseSyncState parses a state token case-insensitively. Unknown tokens
// return ok=false so callers can discard the report instead of storing
// garbage.
func ParseSyncState(s string) (SyncState, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return SyncPending, true
	case "downloading":
		return SyncDownloading, true
	case "downloaded":
		return SyncDownloaded, true
	case "failed":
		return SyncFailed, true
	default:
		return "", false
	}
}

// SyncStatusRecord tracks the download state of one asset on one screen.
// At most one record exists per (screen, asset) pair.
type SyncStatusRecord struct {
	ScreenID      string    `json:"screenId"`
	AssetID       string    `json:"assetId"`
	State         SyncState `json:"state"`
	Progress      int       `json:"progress"`
	ErrorMessage  *string   `json:"errorMessage,omitempty"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ClampProgress bounds a reported progress value to [0,100]
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
