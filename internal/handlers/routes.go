package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/videotube/backend/internal/metrics"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts  AccountStore
	Sessions  SessionManager
	Verifier  AccessVerifier
	Edges     RelationshipStore
	Videos    VideoStore
	Comments  CommentStore
	Tweets    TweetStore
	Playlists PlaylistStore
	Storage   AssetStorage
	Limiter   RateLimiter
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authH := AuthHandler{Accounts: deps.Accounts, Sessions: deps.Sessions, Storage: deps.Storage, Limiter: deps.Limiter}
	relationships := RelationshipHandler{Edges: deps.Edges, Accounts: deps.Accounts, Videos: deps.Videos, Comments: deps.Comments}
	channels := ChannelHandler{Accounts: deps.Accounts, Videos: deps.Videos, Edges: deps.Edges}
	videos := VideoHandler{Videos: deps.Videos, Edges: deps.Edges, Storage: deps.Storage}
	comments := CommentHandler{Comments: deps.Comments, Videos: deps.Videos, Edges: deps.Edges}
	tweets := TweetHandler{Tweets: deps.Tweets, Accounts: deps.Accounts}
	playlists := PlaylistHandler{Playlists: deps.Playlists, Videos: deps.Videos, Accounts: deps.Accounts}

	gate := RequireAuth(deps.Verifier, deps.Accounts)
	viewer := OptionalAuth(deps.Verifier, deps.Accounts)

	open := func(route string, h http.HandlerFunc) http.Handler { return instrument(route, h) }
	authed := func(route string, h http.HandlerFunc) http.Handler { return instrument(route, gate(h)) }
	public := func(route string, h http.HandlerFunc) http.Handler { return instrument(route, viewer(h)) }

	mux.Handle("GET /healthz", open("/healthz", health.Handle))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("POST /api/v1/auth/register", open("/api/v1/auth/register", authH.Register))
	mux.Handle("POST /api/v1/auth/login", open("/api/v1/auth/login", authH.Login))
	mux.Handle("POST /api/v1/auth/refresh", open("/api/v1/auth/refresh", authH.Refresh))
	mux.Handle("POST /api/v1/auth/logout", authed("/api/v1/auth/logout", authH.Logout))
	mux.Handle("GET /api/v1/auth/me", authed("/api/v1/auth/me", authH.Me))
	mux.Handle("PATCH /api/v1/auth/me", authed("/api/v1/auth/me", authH.UpdateMe))
	mux.Handle("POST /api/v1/auth/me/password", authed("/api/v1/auth/me/password", authH.ChangePassword))
	mux.Handle("DELETE /api/v1/auth/me", authed("/api/v1/auth/me", authH.DeleteMe(deps.Edges)))

	mux.Handle("POST /api/v1/subscriptions/{channelID}/toggle", authed("/api/v1/subscriptions/{channelID}/toggle", relationships.ToggleSubscription))
	mux.Handle("GET /api/v1/subscriptions/{channelID}/subscribers", public("/api/v1/subscriptions/{channelID}/subscribers", relationships.ListSubscribers))
	mux.Handle("GET /api/v1/subscriptions/subscribed", authed("/api/v1/subscriptions/subscribed", relationships.ListSubscribed))
	mux.Handle("POST /api/v1/likes/videos/{videoID}/toggle", authed("/api/v1/likes/videos/{videoID}/toggle", relationships.ToggleVideoLike))
	mux.Handle("POST /api/v1/likes/comments/{commentID}/toggle", authed("/api/v1/likes/comments/{commentID}/toggle", relationships.ToggleCommentLike))
	mux.Handle("GET /api/v1/likes/videos", authed("/api/v1/likes/videos", relationships.ListLikedVideos))

	mux.Handle("GET /api/v1/channels/{handle}", public("/api/v1/channels/{handle}", channels.Profile))
	mux.Handle("GET /api/v1/dashboard/stats", authed("/api/v1/dashboard/stats", channels.Stats))
	mux.Handle("GET /api/v1/dashboard/videos", authed("/api/v1/dashboard/videos", channels.DashboardVideos))

	mux.Handle("POST /api/v1/videos", authed("/api/v1/videos", videos.Create))
	mux.Handle("GET /api/v1/videos", public("/api/v1/videos", videos.Feed))
	mux.Handle("GET /api/v1/videos/{videoID}", public("/api/v1/videos/{videoID}", videos.Get))
	mux.Handle("PATCH /api/v1/videos/{videoID}", authed("/api/v1/videos/{videoID}", videos.Update))
	mux.Handle("DELETE /api/v1/videos/{videoID}", authed("/api/v1/videos/{videoID}", videos.Delete))
	mux.Handle("POST /api/v1/videos/{videoID}/publish-toggle", authed("/api/v1/videos/{videoID}/publish-toggle", videos.TogglePublish))
	mux.Handle("GET /api/v1/history", authed("/api/v1/history", videos.History))

	mux.Handle("GET /api/v1/videos/{videoID}/comments", public("/api/v1/videos/{videoID}/comments", comments.List))
	mux.Handle("POST /api/v1/videos/{videoID}/comments", authed("/api/v1/videos/{videoID}/comments", comments.Create))
	mux.Handle("PATCH /api/v1/comments/{commentID}", authed("/api/v1/comments/{commentID}", comments.Update))
	mux.Handle("DELETE /api/v1/comments/{commentID}", authed("/api/v1/comments/{commentID}", comments.Delete))

	mux.Handle("POST /api/v1/tweets", authed("/api/v1/tweets", tweets.Create))
	mux.Handle("GET /api/v1/tweets/channel/{channelID}", open("/api/v1/tweets/channel/{channelID}", tweets.ListForChannel))
	mux.Handle("PATCH /api/v1/tweets/{tweetID}", authed("/api/v1/tweets/{tweetID}", tweets.Update))
	mux.Handle("DELETE /api/v1/tweets/{tweetID}", authed("/api/v1/tweets/{tweetID}", tweets.Delete))

	mux.Handle("POST /api/v1/playlists", authed("/api/v1/playlists", playlists.Create))
	mux.Handle("GET /api/v1/playlists/{playlistID}", open("/api/v1/playlists/{playlistID}", playlists.Get))
	mux.Handle("GET /api/v1/playlists/channel/{channelID}", open("/api/v1/playlists/channel/{channelID}", playlists.ListForChannel))
	mux.Handle("PATCH /api/v1/playlists/{playlistID}", authed("/api/v1/playlists/{playlistID}", playlists.Update))
	mux.Handle("DELETE /api/v1/playlists/{playlistID}", authed("/api/v1/playlists/{playlistID}", playlists.Delete))
	mux.Handle("POST /api/v1/playlists/{playlistID}/videos/{videoID}", authed("/api/v1/playlists/{playlistID}/videos/{videoID}", playlists.AddVideo))
	mux.Handle("DELETE /api/v1/playlists/{playlistID}/videos/{videoID}", authed("/api/v1/playlists/{playlistID}/videos/{videoID}", playlists.RemoveVideo))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// instrument records request count and latency under a static route label so
// path parameters never explode metric cardinality.
func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
