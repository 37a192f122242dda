package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// ChannelHandler serves channel pages and the owner dashboard. Both are
// read-only projections over accounts, videos, and the relationship ledger.
type ChannelHandler struct {
	Accounts AccountStore
	Videos   VideoStore
	Edges    RelationshipStore
}

// Profile handles GET /api/v1/channels/{handle}. Subscriber counts and the
// isSubscribed flag are computed from the ledger at request time, so a
// toggle is visible to the very next read.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	handle := r.PathValue("handle")

	account, err := h.Accounts.FindByUsername(ctx, handle)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	subscriberCount, err := h.Edges.CountEdges(ctx, account.ID, models.EdgeSubscription, models.TargetChannel)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	subscribedToCount, err := h.Edges.CountBySubject(ctx, account.ID, models.EdgeSubscription, models.TargetChannel)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	profile := models.ChannelProfile{
		Account:           account.Summary(),
		SubscriberCount:   subscriberCount,
		SubscribedToCount: subscribedToCount,
	}

	if viewerID := AccountIDFromContext(ctx); viewerID != "" {
		profile.IsSubscribed, err = h.Edges.HasEdge(ctx, models.EdgeKey{
			Type:       models.EdgeSubscription,
			SubjectID:  viewerID,
			ObjectID:   account.ID,
			TargetKind: models.TargetChannel,
		})
		if err != nil {
			logging.FromContext(ctx).Error("subscription lookup failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	respondData(ctx, w, http.StatusOK, "channel profile", profile)
}

// Stats handles GET /api/v1/dashboard/stats for the authenticated channel.
func (h ChannelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := AccountIDFromContext(ctx)

	totalVideos, totalViews, err := h.Videos.OwnerTotals(ctx, ownerID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	subscribers, err := h.Edges.CountEdges(ctx, ownerID, models.EdgeSubscription, models.TargetChannel)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	likes, err := h.Edges.CountLikesForOwner(ctx, ownerID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "channel stats", models.ChannelStats{
		TotalVideos:      totalVideos,
		TotalViews:       totalViews,
		TotalSubscribers: subscribers,
		TotalLikes:       likes,
	})
}

// DashboardVideos handles GET /api/v1/dashboard/videos: every upload of the
// authenticated channel, published or not.
func (h ChannelHandler) DashboardVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videos, err := h.Videos.ListByOwner(ctx, AccountIDFromContext(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "channel videos", videos)
}
