package models

import "time"

// Video represents a published video and its metadata.
type Video struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"ownerId"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	VideoURL     string        `json:"videoFile"`
	ThumbnailURL string        `json:"thumbnail,omitempty"`
	Duration     int64         `json:"duration"` // seconds
	Views        int64         `json:"views"`
	CreatedAt    time.Time     `json:"createdAt"`
	Owner        *OwnerProfile `json:"owner,omitempty"`
}
