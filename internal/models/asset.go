package models

import (
	"strings"
	"time"
)

// AssetType is the kind of content an asset holds
type AssetType string

const (
	AssetImage   AssetType = "Image"
	AssetVideo   AssetType = "Video"
	AssetWebsite AssetType = "Website"
)

// ParseAssetType parses a type token; ok is false for unknown tokens
func ParseAssetType(s string) (AssetType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image":
		return AssetImage, true
	case "video":
		return AssetVideo, true
	case "website":
		return AssetWebsite, true
	default:
		return "", false
	}
}

// Asset represents a content asset (image, video or website) shown on screens
type Asset struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	Type            AssetType `json:"type"`
	Source          string    `json:"source"`
	FileSizeBytes   *int64    `json:"fileSizeBytes,omitempty"`
	DurationSeconds *int      `json:"durationSeconds,omitempty"`
	IsMuted         *bool     `json:"isMuted,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Asset errors
var (
	ErrAssetNotFound = AssetError{"asset not found"}
)

type AssetError struct {
	Message string
}

func (e AssetError) Error() string {
	return e.Message
}
