package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/models"
)

// CommentHandler implements the per-video comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Edges    RelationshipStore
	NowFunc  func() time.Time
}

// commentView decorates a comment with its like aggregates.
type commentView struct {
	models.Comment
	LikeCount int64 `json:"likeCount"`
	IsLiked   bool  `json:"isLiked"`
}

// List handles GET /api/v1/videos/{videoID}/comments.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := r.PathValue("videoID")
	viewerID := AccountIDFromContext(ctx)

	if _, err := h.Videos.FindByID(ctx, videoID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	comments, err := h.Comments.ListForVideo(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	views := make([]commentView, 0, len(comments))
	for _, comment := range comments {
		view := commentView{Comment: comment}

		view.LikeCount, err = h.Edges.CountEdges(ctx, comment.ID, models.EdgeLike, models.TargetComment)
		if err != nil {
			respondStoreError(ctx, w, err, "video not found")
			return
		}

		if viewerID != "" {
			view.IsLiked, err = h.Edges.HasEdge(ctx, models.EdgeKey{
				Type:       models.EdgeLike,
				SubjectID:  viewerID,
				ObjectID:   comment.ID,
				TargetKind: models.TargetComment,
			})
			if err != nil {
				respondStoreError(ctx, w, err, "video not found")
				return
			}
		}

		views = append(views, view)
	}

	respondData(ctx, w, http.StatusOK, "comments", views)
}

// Create handles POST /api/v1/videos/{videoID}/comments.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videoID := r.PathValue("videoID")

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}
	if !video.Published {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		respondError(ctx, w, http.StatusBadRequest, "comment body is required")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		AuthorID:  AccountIDFromContext(ctx),
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusCreated, "comment added", comment)
}

// Update handles PATCH /api/v1/comments/{commentID}. Author only.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, ok := h.authoredComment(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		respondError(ctx, w, http.StatusBadRequest, "comment body is required")
		return
	}

	comment.Body = body
	comment.UpdatedAt = h.now()

	if err := h.Comments.Update(ctx, comment); err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "comment updated", comment)
}

// Delete handles DELETE /api/v1/comments/{commentID}. Author only. Like
// edges on the comment go with it.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, ok := h.authoredComment(w, r)
	if !ok {
		return
	}

	if err := h.Edges.DeleteForObject(ctx, comment.ID, models.TargetComment); err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "comment deleted", nil)
}

func (h CommentHandler) authoredComment(w http.ResponseWriter, r *http.Request) (models.Comment, bool) {
	ctx := r.Context()

	comment, err := h.Comments.FindByID(ctx, r.PathValue("commentID"))
	if err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return models.Comment{}, false
	}
	if comment.AuthorID != AccountIDFromContext(ctx) {
		respondError(ctx, w, http.StatusForbidden, "not the author of this comment")
		return models.Comment{}, false
	}
	return comment, true
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type commentRequest struct {
	Body string `json:"body"`
}
