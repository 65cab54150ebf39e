package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vidlist-backend/internal/middleware"
	"vidlist-backend/internal/models"
	"vidlist-backend/internal/services"
)

type playlistService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req models.CreatePlaylistRequest, thumbnail *services.FileUpload) (*models.Playlist, error)
	Get(ctx context.Context, requesterID, id uuid.UUID) (*models.PlaylistWithVideos, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*models.Playlist, error)
}

type playlistImporter interface {
	Import(ctx context.Context, ownerID uuid.UUID, rawURL string) (*services.ImportResult, error)
}

type PlaylistHandler struct {
	playlists playlistService
	importer  playlistImporter
}

func NewPlaylistHandler(playlists playlistService, importer playlistImporter) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists, importer: importer}
}

// CreateNew stores a playlist from user input. Multipart requests may attach
// a "thumbnails" image.
func (h *PlaylistHandler) CreateNew(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreatePlaylistRequest
	var thumbnail *services.FileUpload

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid multipart form", r))
			return
		}
		req = models.CreatePlaylistRequest{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
		}

		file, closeFile, err := formFile(r, "thumbnails")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid thumbnail upload", r))
			return
		}
		defer closeFile()
		thumbnail = file
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	playlist, err := h.playlists.Create(r.Context(), userID, req, thumbnail)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, playlist)
}

func (h *PlaylistHandler) ImportYouTube(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.ImportPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	result, err := h.importer.Import(r.Context(), userID, req.URL)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.ImportPlaylistResponse{
		Message:    "Playlist created successfully",
		Playlist:   result.Playlist,
		VideoCount: len(result.Videos),
	})
}

func (h *PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid playlist ID", r))
		return
	}

	playlist, err := h.playlists.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, playlist)
}

func (h *PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	playlists, err := h.playlists.ListByOwner(r.Context(), userID, limit, offset)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if playlists == nil {
		playlists = []*models.Playlist{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"playlists": playlists})
}
