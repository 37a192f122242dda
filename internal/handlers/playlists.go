package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/models"
)

// PlaylistHandler implements playlist curation endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Accounts  AccountStore
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(ctx, w, http.StatusBadRequest, "playlist name is required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     AccountIDFromContext(ctx),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondStoreError(ctx, w, err, "account not found")
		return
	}

	respondData(ctx, w, http.StatusCreated, "playlist created", playlist)
}

// Get handles GET /api/v1/playlists/{playlistID}, videos included.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("playlistID"))
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "playlist", playlist)
}

// ListForChannel handles GET /api/v1/playlists/channel/{channelID}.
func (h PlaylistHandler) ListForChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channelID := r.PathValue("channelID")

	exists, err := h.Accounts.Exists(ctx, channelID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}
	if !exists {
		respondError(ctx, w, http.StatusNotFound, "channel not found")
		return
	}

	playlists, err := h.Playlists.ListForOwner(ctx, channelID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "playlists", playlists)
}

// Update handles PATCH /api/v1/playlists/{playlistID}. Owner only.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		playlist.Name = name
	}
	if req.Description != "" {
		playlist.Description = strings.TrimSpace(req.Description)
	}
	playlist.UpdatedAt = h.now()

	if err := h.Playlists.Update(ctx, playlist); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "playlist updated", playlist)
}

// Delete handles DELETE /api/v1/playlists/{playlistID}. Owner only.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "playlist deleted", nil)
}

// AddVideo handles POST /api/v1/playlists/{playlistID}/videos/{videoID}.
// Adding a video already present is a no-op success.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	videoID := r.PathValue("videoID")
	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlist.ID, videoID); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "video added to playlist", nil)
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistID}/videos/{videoID}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, ok := h.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, r.PathValue("videoID")); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "video removed from playlist", nil)
}

func (h PlaylistHandler) ownedPlaylist(w http.ResponseWriter, r *http.Request) (models.Playlist, bool) {
	ctx := r.Context()

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("playlistID"))
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return models.Playlist{}, false
	}
	if playlist.OwnerID != AccountIDFromContext(ctx) {
		respondError(ctx, w, http.StatusForbidden, "not the owner of this playlist")
		return models.Playlist{}, false
	}
	return playlist, true
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
