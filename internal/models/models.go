package models

import (
	"errors"
	"time"
)

// Account represents a registered channel on the platform.
type Account struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	AvatarURL    string
	CoverURL     string
	// RefreshTokenHash fingerprints the single refresh token currently
	// accepted for this account. Empty means no active session.
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Summary strips the credential fields for display.
func (a Account) Summary() AccountSummary {
	return AccountSummary{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		FullName:  a.FullName,
		AvatarURL: a.AvatarURL,
		CoverURL:  a.CoverURL,
		CreatedAt: a.CreatedAt,
	}
}

// AccountSummary is the public projection of an account.
type AccountSummary struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatarUrl"`
	CoverURL  string    `json:"coverUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated accounts.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// EdgeType enumerates the relationship edge types in the ledger.
type EdgeType string

const (
	EdgeSubscription EdgeType = "subscription"
	EdgeLike         EdgeType = "like"
)

// TargetKind narrows what an edge points at. Subscriptions always target a
// channel; likes target a video or a comment.
type TargetKind string

const (
	TargetChannel TargetKind = "channel"
	TargetVideo   TargetKind = "video"
	TargetComment TargetKind = "comment"
)

// ErrInvalidEdgeKey indicates an edge type / target kind combination outside
// the closed set the ledger accepts.
var ErrInvalidEdgeKey = errors.New("invalid relationship edge key")

// EdgeKey identifies the uniqueness class of a relationship edge. At most
// one edge per key exists at any time.
type EdgeKey struct {
	Type       EdgeType
	SubjectID  string
	ObjectID   string
	TargetKind TargetKind
}

// Validate rejects keys outside the closed (type, kind) pairs and keys with
// missing participants.
func (k EdgeKey) Validate() error {
	if k.SubjectID == "" || k.ObjectID == "" {
		return ErrInvalidEdgeKey
	}
	switch k.Type {
	case EdgeSubscription:
		if k.TargetKind != TargetChannel {
			return ErrInvalidEdgeKey
		}
	case EdgeLike:
		if k.TargetKind != TargetVideo && k.TargetKind != TargetComment {
			return ErrInvalidEdgeKey
		}
	default:
		return ErrInvalidEdgeKey
	}
	return nil
}

// RelationshipEdge is a directed, typed record meaning "subject currently
// holds this relation to object". Edges are created and destroyed whole;
// there is no update operation.
type RelationshipEdge struct {
	ID        string
	Key       EdgeKey
	CreatedAt time.Time
}

// Video is an uploaded recording owned by a channel.
type Video struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	VideoURL        string    `json:"videoUrl"`
	ThumbnailURL    string    `json:"thumbnailUrl"`
	DurationSeconds int64     `json:"durationSeconds"`
	Views           int64     `json:"views"`
	Published       bool      `json:"published"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Comment is a viewer note attached to a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tweet is a short channel post unattached to any video.
type Tweet struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playlist is a collection of videos curated by a channel.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Videos      []Video   `json:"videos,omitempty"`
}

// WatchEntry records that an account watched a video.
type WatchEntry struct {
	Video     Video     `json:"video"`
	WatchedAt time.Time `json:"watchedAt"`
}

// ChannelProfile is the viewer-dependent channel page projection.
type ChannelProfile struct {
	Account           AccountSummary `json:"account"`
	SubscriberCount   int64          `json:"subscriberCount"`
	SubscribedToCount int64          `json:"subscribedToCount"`
	IsSubscribed      bool           `json:"isSubscribed"`
}

// ChannelStats aggregates dashboard totals for a channel.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalSubscribers int64 `json:"totalSubscribers"`
	TotalLikes       int64 `json:"totalLikes"`
}
