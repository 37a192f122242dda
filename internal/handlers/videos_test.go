package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/videotube/backend/internal/models"
)

func newVideoFixture() (VideoHandler, *inMemoryAccountStore, *inMemoryVideoStore, *inMemoryEdgeStore) {
	accounts := newInMemoryAccountStore()
	videos := newInMemoryVideoStore()
	edges := newInMemoryEdgeStore()
	edges.accounts = accounts
	edges.videos = videos

	handler := VideoHandler{Videos: videos, Edges: edges}
	return handler, accounts, videos, edges
}

func getVideo(handler VideoHandler, videoID, viewerID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+videoID, nil)
	req.SetPathValue("videoID", videoID)
	if viewerID != "" {
		req = req.WithContext(withAccountID(req.Context(), viewerID))
	}
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	return rec
}

func TestVideoHandlerGet(t *testing.T) {
	handler, accounts, videos, edges := newVideoFixture()
	owner := seedAccount(t, accounts, "owner")
	viewer := seedAccount(t, accounts, "viewer")
	video := seedVideo(t, videos, owner.ID, true)

	if _, err := edges.Toggle(context.Background(), models.EdgeKey{
		Type:       models.EdgeLike,
		SubjectID:  viewer.ID,
		ObjectID:   video.ID,
		TargetKind: models.TargetVideo,
	}); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	rec := getVideo(handler, video.ID, viewer.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp struct {
		Data videoView `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.LikeCount != 1 {
		t.Fatalf("expected like count 1 got %d", resp.Data.LikeCount)
	}
	if !resp.Data.IsLiked {
		t.Fatalf("expected isLiked=true for the liker")
	}

	// The view bumped the counter and recorded history.
	stored, err := videos.FindByID(context.Background(), video.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if stored.Views != 1 {
		t.Fatalf("expected views 1 got %d", stored.Views)
	}
	history, err := videos.ListWatchHistory(context.Background(), viewer.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 || history[0].Video.ID != video.ID {
		t.Fatalf("expected the watch to be recorded, got %+v", history)
	}
}

func TestVideoHandlerGetUnpublished(t *testing.T) {
	handler, accounts, videos, _ := newVideoFixture()
	owner := seedAccount(t, accounts, "owner")
	stranger := seedAccount(t, accounts, "stranger")
	video := seedVideo(t, videos, owner.ID, false)

	if rec := getVideo(handler, video.ID, stranger.ID); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d for stranger got %d", http.StatusNotFound, rec.Code)
	}
	if rec := getVideo(handler, video.ID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d for anonymous got %d", http.StatusNotFound, rec.Code)
	}
	if rec := getVideo(handler, video.ID, owner.ID); rec.Code != http.StatusOK {
		t.Fatalf("expected owner to see the draft, got %d", rec.Code)
	}
}

func TestVideoHandlerUpdateOwnership(t *testing.T) {
	handler, accounts, videos, _ := newVideoFixture()
	owner := seedAccount(t, accounts, "owner")
	stranger := seedAccount(t, accounts, "stranger")
	video := seedVideo(t, videos, owner.ID, true)

	body := `{"title":"renamed"}`

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+video.ID, strings.NewReader(body))
	req.SetPathValue("videoID", video.ID)
	req = req.WithContext(withAccountID(req.Context(), stranger.ID))
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/videos/"+video.ID, strings.NewReader(body))
	req.SetPathValue("videoID", video.ID)
	req = req.WithContext(withAccountID(req.Context(), owner.ID))
	rec = httptest.NewRecorder()
	handler.Update(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stored, err := videos.FindByID(context.Background(), video.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if stored.Title != "renamed" {
		t.Fatalf("expected title to change, got %q", stored.Title)
	}
}

func TestVideoHandlerTogglePublish(t *testing.T) {
	handler, accounts, videos, _ := newVideoFixture()
	owner := seedAccount(t, accounts, "owner")
	video := seedVideo(t, videos, owner.ID, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/"+video.ID+"/publish-toggle", nil)
	req.SetPathValue("videoID", video.ID)
	req = req.WithContext(withAccountID(req.Context(), owner.ID))
	rec := httptest.NewRecorder()
	handler.TogglePublish(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	stored, err := videos.FindByID(context.Background(), video.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if stored.Published {
		t.Fatalf("expected video to be unpublished")
	}
}

func TestVideoHandlerDeleteRemovesEdges(t *testing.T) {
	handler, accounts, videos, edges := newVideoFixture()
	owner := seedAccount(t, accounts, "owner")
	fan := seedAccount(t, accounts, "fan")
	video := seedVideo(t, videos, owner.ID, true)

	if _, err := edges.Toggle(context.Background(), models.EdgeKey{
		Type:       models.EdgeLike,
		SubjectID:  fan.ID,
		ObjectID:   video.ID,
		TargetKind: models.TargetVideo,
	}); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+video.ID, nil)
	req.SetPathValue("videoID", video.ID)
	req = req.WithContext(withAccountID(req.Context(), owner.ID))
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	count, err := edges.CountEdges(context.Background(), video.ID, models.EdgeLike, models.TargetVideo)
	if err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected like edges to go with the video, got %d", count)
	}
}

func TestCommentHandlerCreateAndLikes(t *testing.T) {
	accounts := newInMemoryAccountStore()
	videos := newInMemoryVideoStore()
	comments := newInMemoryCommentStore()
	edges := newInMemoryEdgeStore()
	edges.accounts = accounts
	edges.videos = videos
	handler := CommentHandler{Comments: comments, Videos: videos, Edges: edges}

	owner := seedAccount(t, accounts, "owner")
	viewer := seedAccount(t, accounts, "viewer")
	video := seedVideo(t, videos, owner.ID, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/"+video.ID+"/comments", strings.NewReader(`{"body":"first"}`))
	req.SetPathValue("videoID", video.ID)
	req = req.WithContext(withAccountID(req.Context(), viewer.ID))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created struct {
		Data models.Comment `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if _, err := edges.Toggle(context.Background(), models.EdgeKey{
		Type:       models.EdgeLike,
		SubjectID:  viewer.ID,
		ObjectID:   created.Data.ID,
		TargetKind: models.TargetComment,
	}); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+video.ID+"/comments", nil)
	req.SetPathValue("videoID", video.ID)
	req = req.WithContext(withAccountID(req.Context(), viewer.ID))
	rec = httptest.NewRecorder()
	handler.List(rec, req)

	var listed struct {
		Data []commentView `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listed.Data) != 1 {
		t.Fatalf("expected 1 comment got %d", len(listed.Data))
	}
	if listed.Data[0].LikeCount != 1 || !listed.Data[0].IsLiked {
		t.Fatalf("expected like aggregates on the comment, got %+v", listed.Data[0])
	}
}

func TestCommentHandlerAuthorOnly(t *testing.T) {
	accounts := newInMemoryAccountStore()
	videos := newInMemoryVideoStore()
	comments := newInMemoryCommentStore()
	edges := newInMemoryEdgeStore()
	edges.accounts = accounts
	edges.videos = videos
	handler := CommentHandler{Comments: comments, Videos: videos, Edges: edges}

	owner := seedAccount(t, accounts, "owner")
	author := seedAccount(t, accounts, "author")
	stranger := seedAccount(t, accounts, "stranger")
	video := seedVideo(t, videos, owner.ID, true)

	comment := models.Comment{ID: "comment-1", VideoID: video.ID, AuthorID: author.ID, Body: "mine"}
	if err := comments.Create(context.Background(), comment); err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/comments/comment-1", nil)
	req.SetPathValue("commentID", "comment-1")
	req = req.WithContext(withAccountID(req.Context(), stranger.ID))
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d got %d", http.StatusForbidden, rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/comments/comment-1", nil)
	req.SetPathValue("commentID", "comment-1")
	req = req.WithContext(withAccountID(req.Context(), author.ID))
	rec = httptest.NewRecorder()
	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
}
