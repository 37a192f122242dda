package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/models"
)

// TweetHandler implements the short channel post endpoints.
type TweetHandler struct {
	Tweets   TweetStore
	Accounts AccountStore
	NowFunc  func() time.Time
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		respondError(ctx, w, http.StatusBadRequest, "tweet body is required")
		return
	}

	now := h.now()
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		AuthorID:  AccountIDFromContext(ctx),
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondStoreError(ctx, w, err, "account not found")
		return
	}

	respondData(ctx, w, http.StatusCreated, "tweet posted", tweet)
}

// ListForChannel handles GET /api/v1/tweets/channel/{channelID}.
func (h TweetHandler) ListForChannel(w http.ResponseWriter, r *http.Request) {
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

	tweets, err := h.Tweets.ListForAuthor(ctx, channelID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "tweets", tweets)
}

// Update handles PATCH /api/v1/tweets/{tweetID}. Author only.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweet, ok := h.authoredTweet(w, r)
	if !ok {
		return
	}

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		respondError(ctx, w, http.StatusBadRequest, "tweet body is required")
		return
	}

	tweet.Body = body
	tweet.UpdatedAt = h.now()

	if err := h.Tweets.Update(ctx, tweet); err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "tweet updated", tweet)
}

// Delete handles DELETE /api/v1/tweets/{tweetID}. Author only.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweet, ok := h.authoredTweet(w, r)
	if !ok {
		return
	}

	if err := h.Tweets.Delete(ctx, tweet.ID); err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "tweet deleted", nil)
}

func (h TweetHandler) authoredTweet(w http.ResponseWriter, r *http.Request) (models.Tweet, bool) {
	ctx := r.Context()

	tweet, err := h.Tweets.FindByID(ctx, r.PathValue("tweetID"))
	if err != nil {
		respondStoreError(ctx, w, err, "tweet not found")
		return models.Tweet{}, false
	}
	if tweet.AuthorID != AccountIDFromContext(ctx) {
		respondError(ctx, w, http.StatusForbidden, "not the author of this tweet")
		return models.Tweet{}, false
	}
	return tweet, true
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type tweetRequest struct {
	Body string `json:"body"`
}
