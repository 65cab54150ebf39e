package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vidlist-backend/internal/models"
	"vidlist-backend/internal/repository"
)

// BlobStore persists uploaded files and returns a URL that serves them.
type BlobStore interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
}

// FileUpload is a file received from a client.
type FileUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type playlistRepository interface {
	Create(ctx context.Context, p *models.Playlist) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Playlist, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Playlist, error)
}

type videoLister interface {
	ListByPlaylist(ctx context.Context, playlistID uuid.UUID) ([]*models.Video, error)
}

type PlaylistService struct {
	playlists playlistRepository
	videos    videoLister
	blobs     BlobStore
}

func NewPlaylistService(playlists playlistRepository, videos videoLister, blobs BlobStore) *PlaylistService {
	return &PlaylistService{playlists: playlists, videos: videos, blobs: blobs}
}

// Create stores a playlist built from user input. No catalog calls are made.
func (s *PlaylistService) Create(ctx context.Context, ownerID uuid.UUID, req models.CreatePlaylistRequest, thumbnail *FileUpload) (*models.Playlist, error) {
	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)

	if name == "" && description == "" {
		return nil, &ValidationError{Fields: map[string]string{
			"name":        "Name or description is required",
			"description": "Name or description is required",
		}}
	}
	if name == "" {
		return nil, fieldError("name", "Name is required")
	}

	playlist := &models.Playlist{
		Name:        name,
		Description: description,
		Thumbnails:  models.Thumbnails{},
	}
	if ownerID != uuid.Nil {
		owner := ownerID
		playlist.OwnerID = &owner
	}

	if thumbnail != nil {
		url, err := saveImage(ctx, s.blobs, "thumbnails", "playlists", thumbnail)
		if err != nil {
			return nil, err
		}
		playlist.Thumbnails["default"] = models.Thumbnail{URL: url}
	}

	if err := s.playlists.Create(ctx, playlist); err != nil {
		return nil, &PersistenceError{Message: "Failed to create playlist", Err: err}
	}
	return playlist, nil
}

func (s *PlaylistService) Get(ctx context.Context, requesterID, id uuid.UUID) (*models.PlaylistWithVideos, error) {
	playlist, err := s.playlists.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &NotFoundError{Message: "Playlist not found"}
		}
		return nil, err
	}

	if playlist.OwnerID != nil && *playlist.OwnerID != requesterID {
		return nil, &ForbiddenError{Message: "You do not have access to this playlist"}
	}

	videos, err := s.videos.ListByPlaylist(ctx, playlist.ID)
	if err != nil {
		return nil, err
	}

	return &models.PlaylistWithVideos{Playlist: *playlist, Videos: videos}, nil
}

func (s *PlaylistService) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Playlist, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.playlists.ListByOwner(ctx, ownerID, limit, offset)
}

var allowedImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

// saveImage checks that file looks like an image and stores it under prefix.
// Rejections are reported against field.
func saveImage(ctx context.Context, blobs BlobStore, field, prefix string, file *FileUpload) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExtensions[ext] {
		return "", fieldError(field, "Unsupported image type")
	}
	if file.ContentType != "" && !strings.HasPrefix(file.ContentType, "image/") {
		return "", fieldError(field, "Unsupported image type")
	}
	if blobs == nil {
		return "", &PersistenceError{Message: "File storage is not configured"}
	}

	key := fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), ext)
	url, err := blobs.Save(ctx, key, file.Body)
	if err != nil {
		return "", &PersistenceError{Message: "Failed to upload file", Err: err}
	}
	return url, nil
}
