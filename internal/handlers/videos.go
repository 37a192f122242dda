package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// VideoHandler implements upload, playback metadata, and feed endpoints.
type VideoHandler struct {
	Videos  VideoStore
	Edges   RelationshipStore
	Storage AssetStorage
	NowFunc func() time.Time
}

// videoView decorates a video with its ledger-derived aggregates.
type videoView struct {
	models.Video
	LikeCount int64 `json:"likeCount"`
	IsLiked   bool  `json:"isLiked"`
}

// Create handles POST /api/v1/videos: a multipart form with title,
// description, the video file, and a thumbnail.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, span := logging.StartSpan(r.Context(), "video.upload")
	defer span.End()
	logger := logging.FromContext(ctx)
	ownerID := AccountIDFromContext(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	videoFile := formFile(r, "video")
	if videoFile == nil {
		respondError(ctx, w, http.StatusBadRequest, "video file is required")
		return
	}

	now := h.now()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(r.FormValue("description")),
		Published:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if seconds, err := strconv.ParseInt(r.FormValue("durationSeconds"), 10, 64); err == nil && seconds > 0 {
		video.DurationSeconds = seconds
	}

	var err error
	video.VideoURL, err = h.saveUpload(r, videoFile, "videos", video.ID)
	if err != nil {
		logger.Error("video upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}

	if thumb := formFile(r, "thumbnail"); thumb != nil {
		video.ThumbnailURL, err = h.saveUpload(r, thumb, "thumbnails", video.ID)
		if err != nil {
			logger.Error("thumbnail upload failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
			return
		}
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		respondStoreError(ctx, w, err, "owner not found")
		return
	}

	respondData(ctx, w, http.StatusCreated, "video published", video)
}

// Get handles GET /api/v1/videos/{videoID}. Unpublished videos are visible
// to their owner only. A successful view bumps the view counter and records
// watch history for authenticated viewers.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := r.PathValue("videoID")
	viewerID := AccountIDFromContext(ctx)

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}
	if !video.Published && video.OwnerID != viewerID {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	view := videoView{Video: video}

	view.LikeCount, err = h.Edges.CountEdges(ctx, video.ID, models.EdgeLike, models.TargetVideo)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	if viewerID != "" {
		view.IsLiked, err = h.Edges.HasEdge(ctx, models.EdgeKey{
			Type:       models.EdgeLike,
			SubjectID:  viewerID,
			ObjectID:   video.ID,
			TargetKind: models.TargetVideo,
		})
		if err != nil {
			respondStoreError(ctx, w, err, "video not found")
			return
		}

		if err := h.Videos.RecordWatch(ctx, viewerID, video.ID, h.now()); err != nil {
			logging.FromContext(ctx).Warn("failed to record watch history", "error", err)
		}
	}

	if err := h.Videos.IncrementViews(ctx, video.ID); err != nil {
		logging.FromContext(ctx).Warn("failed to increment views", "error", err)
	}

	respondData(ctx, w, http.StatusOK, "video", view)
}

// Feed handles GET /api/v1/videos: published videos, newest first.
func (h VideoHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	videos, err := h.Videos.ListPublished(ctx, limit, offset)
	if err != nil {
		respondStoreError(ctx, w, err, "feed unavailable")
		return
	}

	respondData(ctx, w, http.StatusOK, "video feed", videos)
}

// Update handles PATCH /api/v1/videos/{videoID}. Owner only.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	var req updateVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != "" {
		video.Title = strings.TrimSpace(req.Title)
	}
	if req.Description != nil {
		video.Description = strings.TrimSpace(*req.Description)
	}
	video.UpdatedAt = h.now()

	if err := h.Videos.Update(ctx, video); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "video updated", video)
}

// TogglePublish handles POST /api/v1/videos/{videoID}/publish-toggle.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	video.Published = !video.Published
	if err := h.Videos.SetPublished(ctx, video.ID, video.Published); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "publish state updated", video)
}

// Delete handles DELETE /api/v1/videos/{videoID}. Owner only. Like edges
// pointing at the video are removed with it so counts never dangle.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, ok := h.ownedVideo(w, r)
	if !ok {
		return
	}

	if err := h.Edges.DeleteForObject(ctx, video.ID, models.TargetVideo); err != nil {
		logging.FromContext(ctx).Error("failed to remove video edges", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to delete video")
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "video deleted", nil)
}

// History handles GET /api/v1/history.
func (h VideoHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.Videos.ListWatchHistory(ctx, AccountIDFromContext(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "account not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "watch history", entries)
}

// ownedVideo loads the path video and enforces ownership: 404 when absent,
// 403 when the viewer is not the owner.
func (h VideoHandler) ownedVideo(w http.ResponseWriter, r *http.Request) (models.Video, bool) {
	ctx := r.Context()

	video, err := h.Videos.FindByID(ctx, r.PathValue("videoID"))
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return models.Video{}, false
	}
	if video.OwnerID != AccountIDFromContext(ctx) {
		respondError(ctx, w, http.StatusForbidden, "not the owner of this video")
		return models.Video{}, false
	}
	return video, true
}

func (h VideoHandler) saveUpload(r *http.Request, header *multipart.FileHeader, prefix, id string) (string, error) {
	if h.Storage == nil {
		return "", errors.New("asset storage unavailable")
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%s%s", prefix, id, path.Ext(header.Filename))
	return h.Storage.Save(r.Context(), key, header.Header.Get("Content-Type"), file)
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if headers := r.MultipartForm.File[field]; len(headers) > 0 {
		return headers[0]
	}
	return nil
}

type updateVideoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}
