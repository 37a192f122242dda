package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/models"
)

type toggleEnvelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    toggleResponse `json:"data"`
}

func newRelationshipFixture() (RelationshipHandler, *inMemoryAccountStore, *inMemoryVideoStore, *inMemoryEdgeStore, *inMemoryCommentStore) {
	accounts := newInMemoryAccountStore()
	videos := newInMemoryVideoStore()
	comments := newInMemoryCommentStore()
	edges := newInMemoryEdgeStore()
	edges.accounts = accounts
	edges.videos = videos

	handler := RelationshipHandler{Edges: edges, Accounts: accounts, Videos: videos, Comments: comments}
	return handler, accounts, videos, edges, comments
}

func seedAccount(t *testing.T, accounts *inMemoryAccountStore, username string) models.Account {
	t.Helper()
	account := models.Account{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Now().UTC(),
	}
	if err := accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func seedVideo(t *testing.T, videos *inMemoryVideoStore, ownerID string, published bool) models.Video {
	t.Helper()
	video := models.Video{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     "a video",
		Published: published,
		CreatedAt: time.Now().UTC(),
	}
	if err := videos.Create(context.Background(), video); err != nil {
		t.Fatalf("seed video: %v", err)
	}
	return video
}

func toggleSubscription(handler RelationshipHandler, subjectID, channelID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/"+channelID+"/toggle", nil)
	req.SetPathValue("channelID", channelID)
	req = req.WithContext(withAccountID(req.Context(), subjectID))
	rec := httptest.NewRecorder()
	handler.ToggleSubscription(rec, req)
	return rec
}

func TestToggleSubscription(t *testing.T) {
	handler, accounts, _, edges, _ := newRelationshipFixture()
	viewer := seedAccount(t, accounts, "viewer")
	channel := seedAccount(t, accounts, "channel")

	// First toggle creates the edge and reports 201.
	rec := toggleSubscription(handler, viewer.ID, channel.ID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var resp toggleEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.Created {
		t.Fatalf("expected created=true on first toggle")
	}

	// Second toggle removes it and reports 200.
	rec = toggleSubscription(handler, viewer.ID, channel.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Created {
		t.Fatalf("expected created=false on second toggle")
	}

	// An even number of toggles leaves no edge behind.
	count, err := edges.CountEdges(context.Background(), channel.ID, models.EdgeSubscription, models.TargetChannel)
	if err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no edges after paired toggles, got %d", count)
	}
}

func TestToggleSubscriptionFailures(t *testing.T) {
	handler, accounts, _, _, _ := newRelationshipFixture()
	viewer := seedAccount(t, accounts, "viewer")

	t.Run("invalidID", func(t *testing.T) {
		rec := toggleSubscription(handler, viewer.ID, "not-a-uuid")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("selfSubscription", func(t *testing.T) {
		rec := toggleSubscription(handler, viewer.ID, viewer.ID)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
		}
	})

	t.Run("unknownChannel", func(t *testing.T) {
		rec := toggleSubscription(handler, viewer.ID, uuid.NewString())
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
		}
	})
}

func TestToggleVideoLike(t *testing.T) {
	handler, accounts, videos, edges, _ := newRelationshipFixture()
	viewer := seedAccount(t, accounts, "viewer")
	owner := seedAccount(t, accounts, "owner")
	video := seedVideo(t, videos, owner.ID, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/videos/"+video.ID+"/toggle", nil)
	req.SetPathValue("videoID", video.ID)
	req = req.WithContext(withAccountID(req.Context(), viewer.ID))
	rec := httptest.NewRecorder()
	handler.ToggleVideoLike(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	liked, err := edges.HasEdge(context.Background(), models.EdgeKey{
		Type:       models.EdgeLike,
		SubjectID:  viewer.ID,
		ObjectID:   video.ID,
		TargetKind: models.TargetVideo,
	})
	if err != nil {
		t.Fatalf("has edge: %v", err)
	}
	if !liked {
		t.Fatalf("expected like edge to exist")
	}
}

func TestToggleVideoLikeUnpublished(t *testing.T) {
	handler, accounts, videos, _, _ := newRelationshipFixture()
	viewer := seedAccount(t, accounts, "viewer")
	owner := seedAccount(t, accounts, "owner")
	video := seedVideo(t, videos, owner.ID, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/videos/"+video.ID+"/toggle", nil)
	req.SetPathValue("videoID", video.ID)
	req = req.WithContext(withAccountID(req.Context(), viewer.ID))
	rec := httptest.NewRecorder()
	handler.ToggleVideoLike(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestToggleCommentLike(t *testing.T) {
	handler, accounts, videos, _, comments := newRelationshipFixture()
	viewer := seedAccount(t, accounts, "viewer")
	owner := seedAccount(t, accounts, "owner")
	video := seedVideo(t, videos, owner.ID, true)

	comment := models.Comment{ID: uuid.NewString(), VideoID: video.ID, AuthorID: owner.ID, Body: "nice"}
	if err := comments.Create(context.Background(), comment); err != nil {
		t.Fatalf("seed comment: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/comments/"+comment.ID+"/toggle", nil)
	req.SetPathValue("commentID", comment.ID)
	req = req.WithContext(withAccountID(req.Context(), viewer.ID))
	rec := httptest.NewRecorder()
	handler.ToggleCommentLike(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/likes/comments/"+uuid.NewString()+"/toggle", nil)
	req.SetPathValue("commentID", uuid.NewString())
	req = req.WithContext(withAccountID(req.Context(), viewer.ID))
	rec = httptest.NewRecorder()
	handler.ToggleCommentLike(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestListSubscribers(t *testing.T) {
	handler, accounts, _, _, _ := newRelationshipFixture()
	channel := seedAccount(t, accounts, "channel")
	first := seedAccount(t, accounts, "first")
	second := seedAccount(t, accounts, "second")

	toggleSubscription(handler, first.ID, channel.ID)
	toggleSubscription(handler, second.ID, channel.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/"+channel.ID+"/subscribers", nil)
	req.SetPathValue("channelID", channel.ID)
	rec := httptest.NewRecorder()
	handler.ListSubscribers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Data []models.AccountSummary `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 subscribers got %d", len(resp.Data))
	}
}

func TestListLikedVideosOmitsUnpublished(t *testing.T) {
	handler, accounts, videos, _, _ := newRelationshipFixture()
	viewer := seedAccount(t, accounts, "viewer")
	owner := seedAccount(t, accounts, "owner")
	published := seedVideo(t, videos, owner.ID, true)
	hidden := seedVideo(t, videos, owner.ID, true)

	for _, video := range []models.Video{published, hidden} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/likes/videos/"+video.ID+"/toggle", nil)
		req.SetPathValue("videoID", video.ID)
		req = req.WithContext(withAccountID(req.Context(), viewer.ID))
		handler.ToggleVideoLike(httptest.NewRecorder(), req)
	}

	// Unpublishing after the like hides the video from the listing.
	if err := videos.SetPublished(context.Background(), hidden.ID, false); err != nil {
		t.Fatalf("set published: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/likes/videos", nil)
	req = req.WithContext(withAccountID(req.Context(), viewer.ID))
	rec := httptest.NewRecorder()
	handler.ListLikedVideos(rec, req)

	var resp struct {
		Data []models.Video `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != published.ID {
		t.Fatalf("expected only the published liked video, got %+v", resp.Data)
	}
}

func TestChannelProfileCounts(t *testing.T) {
	handler, accounts, videos, edges, _ := newRelationshipFixture()
	channel := seedAccount(t, accounts, "channel")
	fan := seedAccount(t, accounts, "fan")

	toggleSubscription(handler, fan.ID, channel.ID)

	channels := ChannelHandler{Accounts: accounts, Videos: videos, Edges: edges}

	// Anonymous read sees the count but no isSubscribed flag.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/channel", nil)
	req.SetPathValue("handle", "channel")
	rec := httptest.NewRecorder()
	channels.Profile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Data models.ChannelProfile `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.SubscriberCount != 1 {
		t.Fatalf("expected subscriber count 1 got %d", resp.Data.SubscriberCount)
	}
	if resp.Data.IsSubscribed {
		t.Fatalf("expected anonymous viewer to not be subscribed")
	}

	// The subscriber sees their own flag.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/channels/channel", nil)
	req.SetPathValue("handle", "channel")
	req = req.WithContext(withAccountID(req.Context(), fan.ID))
	rec = httptest.NewRecorder()
	channels.Profile(rec, req)

	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.IsSubscribed {
		t.Fatalf("expected isSubscribed=true for the subscriber")
	}

	// Unsubscribe is visible to the very next read.
	toggleSubscription(handler, fan.ID, channel.ID)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/channels/channel", nil)
	req.SetPathValue("handle", "channel")
	channels.Profile(rec, req)
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.SubscriberCount != 0 {
		t.Fatalf("expected subscriber count 0 after unsubscribe, got %d", resp.Data.SubscriberCount)
	}
}

func TestDashboardStats(t *testing.T) {
	handler, accounts, videos, edges, _ := newRelationshipFixture()
	owner := seedAccount(t, accounts, "owner")
	fan := seedAccount(t, accounts, "fan")

	video := seedVideo(t, videos, owner.ID, true)
	if err := videos.IncrementViews(context.Background(), video.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}

	toggleSubscription(handler, fan.ID, owner.ID)

	likeReq := httptest.NewRequest(http.MethodPost, "/api/v1/likes/videos/"+video.ID+"/toggle", nil)
	likeReq.SetPathValue("videoID", video.ID)
	likeReq = likeReq.WithContext(withAccountID(likeReq.Context(), fan.ID))
	handler.ToggleVideoLike(httptest.NewRecorder(), likeReq)

	channels := ChannelHandler{Accounts: accounts, Videos: videos, Edges: edges}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil)
	req = req.WithContext(withAccountID(req.Context(), owner.ID))
	rec := httptest.NewRecorder()
	channels.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}

	var resp struct {
		Data models.ChannelStats `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	want := models.ChannelStats{TotalVideos: 1, TotalViews: 1, TotalSubscribers: 1, TotalLikes: 1}
	if resp.Data != want {
		t.Fatalf("expected stats %+v got %+v", want, resp.Data)
	}
}
