package handlers

import (
	"context"
	"io"
	"time"

	"github.com/videotube/backend/internal/models"
)

// AccountStore captures the persistence operations required by the auth and
// channel handlers.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByIdentifier(ctx context.Context, identifier string) (models.Account, error)
	FindByUsername(ctx context.Context, username string) (models.Account, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateProfile(ctx context.Context, account models.Account) error
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// SessionManager issues, rotates, and revokes session credentials.
type SessionManager interface {
	Issue(ctx context.Context, accountID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, accountID string) error
}

// AccessVerifier validates access tokens for the authorization gate.
type AccessVerifier interface {
	VerifyAccess(token string) (accountID string, err error)
}

// RelationshipStore is the ledger surface consumed by handlers: the toggle
// plus the read-only aggregate views derived from it.
type RelationshipStore interface {
	Toggle(ctx context.Context, key models.EdgeKey) (created bool, err error)
	CountEdges(ctx context.Context, objectID string, edgeType models.EdgeType, kind models.TargetKind) (int64, error)
	CountBySubject(ctx context.Context, subjectID string, edgeType models.EdgeType, kind models.TargetKind) (int64, error)
	HasEdge(ctx context.Context, key models.EdgeKey) (bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.AccountSummary, error)
	ListSubscribedChannels(ctx context.Context, subjectID string) ([]models.AccountSummary, error)
	ListLikedVideos(ctx context.Context, subjectID string) ([]models.Video, error)
	CountLikesForOwner(ctx context.Context, ownerID string) (int64, error)
	DeleteForObject(ctx context.Context, objectID string, kind models.TargetKind) error
	DeleteForAccount(ctx context.Context, accountID string) error
}

// VideoStore captures persistence for videos and watch history.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	Update(ctx context.Context, video models.Video) error
	SetPublished(ctx context.Context, id string, published bool) error
	IncrementViews(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	OwnerTotals(ctx context.Context, ownerID string) (videos int64, views int64, err error)
	RecordWatch(ctx context.Context, accountID, videoID string, watchedAt time.Time) error
	ListWatchHistory(ctx context.Context, accountID string) ([]models.WatchEntry, error)
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	ListForVideo(ctx context.Context, videoID string) ([]models.Comment, error)
	Update(ctx context.Context, comment models.Comment) error
	Delete(ctx context.Context, id string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	ListForAuthor(ctx context.Context, authorID string) ([]models.Tweet, error)
	Update(ctx context.Context, tweet models.Tweet) error
	Delete(ctx context.Context, id string) error
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, playlist models.Playlist) error
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// AssetStorage persists uploaded binary objects and returns a public location.
type AssetStorage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}
