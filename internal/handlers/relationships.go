package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/metrics"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// RelationshipHandler implements the toggle endpoints for subscriptions and
// likes, plus the listings derived from the ledger.
type RelationshipHandler struct {
	Edges    RelationshipStore
	Accounts AccountStore
	Videos   VideoStore
	Comments CommentStore
}

// ToggleSubscription handles POST /api/v1/subscriptions/{channelID}/toggle.
func (h RelationshipHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := AccountIDFromContext(ctx)
	channelID := r.PathValue("channelID")

	if _, err := uuid.Parse(channelID); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid channel id")
		return
	}
	if channelID == subjectID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to yourself")
		return
	}

	exists, err := h.Accounts.Exists(ctx, channelID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}
	if !exists {
		respondError(ctx, w, http.StatusNotFound, "channel not found")
		return
	}

	h.toggle(w, r, models.EdgeKey{
		Type:       models.EdgeSubscription,
		SubjectID:  subjectID,
		ObjectID:   channelID,
		TargetKind: models.TargetChannel,
	}, "subscribed", "unsubscribed")
}

// ToggleVideoLike handles POST /api/v1/likes/videos/{videoID}/toggle.
// Only published videos are eligible.
func (h RelationshipHandler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := r.PathValue("videoID")

	if _, err := uuid.Parse(videoID); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}
	if !video.Published {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	h.toggle(w, r, models.EdgeKey{
		Type:       models.EdgeLike,
		SubjectID:  AccountIDFromContext(ctx),
		ObjectID:   videoID,
		TargetKind: models.TargetVideo,
	}, "video liked", "video unliked")
}

// ToggleCommentLike handles POST /api/v1/likes/comments/{commentID}/toggle.
func (h RelationshipHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	commentID := r.PathValue("commentID")

	if _, err := uuid.Parse(commentID); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid comment id")
		return
	}

	if _, err := h.Comments.FindByID(ctx, commentID); err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	h.toggle(w, r, models.EdgeKey{
		Type:       models.EdgeLike,
		SubjectID:  AccountIDFromContext(ctx),
		ObjectID:   commentID,
		TargetKind: models.TargetComment,
	}, "comment liked", "comment unliked")
}

// toggle runs the atomic check-and-act and reports the operation performed:
// 201 when the edge was created, 200 when it was removed.
func (h RelationshipHandler) toggle(w http.ResponseWriter, r *http.Request, key models.EdgeKey, createdMsg, removedMsg string) {
	ctx, span := logging.StartSpan(r.Context(), "relationship.toggle")
	defer span.End()

	created, err := h.Edges.Toggle(ctx, key)
	if err != nil {
		if errors.Is(err, models.ErrInvalidEdgeKey) {
			respondError(ctx, w, http.StatusBadRequest, "invalid relationship")
			return
		}
		if errors.Is(err, repositories.ErrContended) {
			respondError(ctx, w, http.StatusConflict, "try again")
			return
		}
		logging.FromContext(ctx).Error("toggle failed", "error", err, "edgeType", key.Type)
		respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}

	outcome := metrics.ToggleRemoved
	status := http.StatusOK
	message := removedMsg
	if created {
		outcome = metrics.ToggleCreated
		status = http.StatusCreated
		message = createdMsg
	}
	metrics.ToggleOperationsTotal.WithLabelValues(string(key.Type), outcome).Inc()

	respondData(ctx, w, status, message, toggleResponse{Created: created})
}

// ListSubscribers handles GET /api/v1/subscriptions/{channelID}/subscribers.
func (h RelationshipHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
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

	subscribers, err := h.Edges.ListSubscribers(ctx, channelID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "subscribers", subscribers)
}

// ListSubscribed handles GET /api/v1/subscriptions/subscribed.
func (h RelationshipHandler) ListSubscribed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channels, err := h.Edges.ListSubscribedChannels(ctx, AccountIDFromContext(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "account not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "subscribed channels", channels)
}

// ListLikedVideos handles GET /api/v1/likes/videos.
func (h RelationshipHandler) ListLikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videos, err := h.Edges.ListLikedVideos(ctx, AccountIDFromContext(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "account not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "liked videos", videos)
}

type toggleResponse struct {
	Created bool `json:"created"`
}
