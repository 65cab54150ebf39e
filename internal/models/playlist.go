package models

import (
	"time"

	"github.com/google/uuid"
)

// Thumbnail is one rendition of an artwork image, keyed by size name
// ("default", "medium", "high", ...) inside Thumbnails.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int64  `json:"width,omitempty"`
	Height int64  `json:"height,omitempty"`
}

type Thumbnails map[string]Thumbnail

type Playlist struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerID     *uuid.UUID `json:"owner_id"`
	Thumbnails  Thumbnails `json:"thumbnails"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Video struct {
	ID          uuid.UUID  `json:"id"`
	VideoID     string     `json:"video_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Thumbnails  Thumbnails `json:"thumbnails"`
	Duration    string     `json:"duration"`
	Position    int        `json:"position"`
	PlaylistID  uuid.UUID  `json:"playlist_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type PlaylistWithVideos struct {
	Playlist
	Videos []*Video `json:"videos"`
}

type CreatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ImportPlaylistRequest struct {
	URL string `json:"url"`
}

type ImportPlaylistResponse struct {
	Message    string    `json:"message"`
	Playlist   *Playlist `json:"playlist"`
	VideoCount int       `json:"video_count"`
}
