package handlers

import (
	"context"
	"sort"
	"sync"
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

func newTestSessionManager() (*auth.Manager, *auth.TokenIssuer, *auth.InMemorySessionStore) {
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		Issuer:        "videotube-test",
		AccessKeyHex:  paseto.NewV4SymmetricKey().ExportHex(),
		RefreshKeyHex: paseto.NewV4SymmetricKey().ExportHex(),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		panic(err)
	}
	store := auth.NewInMemorySessionStore()
	return auth.NewManager(issuer, store), issuer, store
}

type inMemoryAccountStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
}

func newInMemoryAccountStore() *inMemoryAccountStore {
	return &inMemoryAccountStore{accounts: make(map[string]models.Account)}
}

func (s *inMemoryAccountStore) Create(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return repositories.ErrConflict
		}
	}
	s.accounts[account.ID] = account
	return nil
}

func (s *inMemoryAccountStore) FindByID(_ context.Context, id string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repositories.ErrNotFound
	}
	return account, nil
}

func (s *inMemoryAccountStore) FindByIdentifier(_ context.Context, identifier string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Username == identifier || account.Email == identifier {
			return account, nil
		}
	}
	return models.Account{}, repositories.ErrNotFound
}

func (s *inMemoryAccountStore) FindByUsername(_ context.Context, username string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.accounts {
		if account.Username == username {
			return account, nil
		}
	}
	return models.Account{}, repositories.ErrNotFound
}

func (s *inMemoryAccountStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[id]
	return ok, nil
}

func (s *inMemoryAccountStore) UpdateProfile(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[account.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	stored.Email = account.Email
	stored.FullName = account.FullName
	stored.AvatarURL = account.AvatarURL
	stored.CoverURL = account.CoverURL
	stored.UpdatedAt = account.UpdatedAt
	s.accounts[account.ID] = stored
	return nil
}

func (s *inMemoryAccountStore) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	account.PasswordHash = passwordHash
	s.accounts[id] = account
	return nil
}

func (s *inMemoryAccountStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

type storedEdge struct {
	key       models.EdgeKey
	createdAt time.Time
}

type inMemoryEdgeStore struct {
	mu    sync.Mutex
	edges map[models.EdgeKey]storedEdge

	accounts *inMemoryAccountStore
	videos   *inMemoryVideoStore
}

func newInMemoryEdgeStore() *inMemoryEdgeStore {
	return &inMemoryEdgeStore{edges: make(map[models.EdgeKey]storedEdge)}
}

func (s *inMemoryEdgeStore) Toggle(_ context.Context, key models.EdgeKey) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[key]; ok {
		delete(s.edges, key)
		return false, nil
	}
	s.edges[key] = storedEdge{key: key, createdAt: time.Now().UTC()}
	return true, nil
}

func (s *inMemoryEdgeStore) CountEdges(_ context.Context, objectID string, edgeType models.EdgeType, kind models.TargetKind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key := range s.edges {
		if key.ObjectID == objectID && key.Type == edgeType && key.TargetKind == kind {
			count++
		}
	}
	return count, nil
}

func (s *inMemoryEdgeStore) CountBySubject(_ context.Context, subjectID string, edgeType models.EdgeType, kind models.TargetKind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key := range s.edges {
		if key.SubjectID == subjectID && key.Type == edgeType && key.TargetKind == kind {
			count++
		}
	}
	return count, nil
}

func (s *inMemoryEdgeStore) HasEdge(_ context.Context, key models.EdgeKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.edges[key]
	return ok, nil
}

func (s *inMemoryEdgeStore) ListSubscribers(ctx context.Context, channelID string) ([]models.AccountSummary, error) {
	s.mu.Lock()
	var subjectIDs []string
	for key := range s.edges {
		if key.ObjectID == channelID && key.Type == models.EdgeSubscription {
			subjectIDs = append(subjectIDs, key.SubjectID)
		}
	}
	s.mu.Unlock()

	sort.Strings(subjectIDs)
	var out []models.AccountSummary
	for _, id := range subjectIDs {
		account, err := s.accounts.FindByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, account.Summary())
	}
	return out, nil
}

func (s *inMemoryEdgeStore) ListSubscribedChannels(ctx context.Context, subjectID string) ([]models.AccountSummary, error) {
	s.mu.Lock()
	var objectIDs []string
	for key := range s.edges {
		if key.SubjectID == subjectID && key.Type == models.EdgeSubscription {
			objectIDs = append(objectIDs, key.ObjectID)
		}
	}
	s.mu.Unlock()

	sort.Strings(objectIDs)
	var out []models.AccountSummary
	for _, id := range objectIDs {
		account, err := s.accounts.FindByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, account.Summary())
	}
	return out, nil
}

func (s *inMemoryEdgeStore) ListLikedVideos(ctx context.Context, subjectID string) ([]models.Video, error) {
	s.mu.Lock()
	var videoIDs []string
	for key := range s.edges {
		if key.SubjectID == subjectID && key.Type == models.EdgeLike && key.TargetKind == models.TargetVideo {
			videoIDs = append(videoIDs, key.ObjectID)
		}
	}
	s.mu.Unlock()

	sort.Strings(videoIDs)
	var out []models.Video
	for _, id := range videoIDs {
		video, err := s.videos.FindByID(ctx, id)
		if err != nil || !video.Published {
			continue
		}
		out = append(out, video)
	}
	return out, nil
}

func (s *inMemoryEdgeStore) CountLikesForOwner(ctx context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key := range s.edges {
		if key.Type != models.EdgeLike || key.TargetKind != models.TargetVideo {
			continue
		}
		video, ok := s.videos.peek(key.ObjectID)
		if ok && video.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (s *inMemoryEdgeStore) DeleteForObject(_ context.Context, objectID string, kind models.TargetKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.edges {
		if key.ObjectID == objectID && key.TargetKind == kind {
			delete(s.edges, key)
		}
	}
	return nil
}

func (s *inMemoryEdgeStore) DeleteForAccount(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.edges {
		if key.SubjectID == accountID || (key.ObjectID == accountID && key.TargetKind == models.TargetChannel) {
			delete(s.edges, key)
		}
	}
	return nil
}

type inMemoryVideoStore struct {
	mu      sync.Mutex
	videos  map[string]models.Video
	watched map[string]time.Time
}

func newInMemoryVideoStore() *inMemoryVideoStore {
	return &inMemoryVideoStore{
		videos:  make(map[string]models.Video),
		watched: make(map[string]time.Time),
	}
}

func (s *inMemoryVideoStore) peek(id string) (models.Video, bool) {
	video, ok := s.videos[id]
	return video, ok
}

func (s *inMemoryVideoStore) Create(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) FindByID(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *inMemoryVideoStore) ListPublished(_ context.Context, limit, offset int) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Video
	for _, video := range s.videos {
		if video.Published {
			out = append(out, video)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *inMemoryVideoStore) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Video
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			out = append(out, video)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *inMemoryVideoStore) Update(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[video.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

func (s *inMemoryVideoStore) SetPublished(_ context.Context, id string, published bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Published = published
	s.videos[id] = video
	return nil
}

func (s *inMemoryVideoStore) IncrementViews(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

func (s *inMemoryVideoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *inMemoryVideoStore) OwnerTotals(_ context.Context, ownerID string) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count, views int64
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			count++
			views += video.Views
		}
	}
	return count, views, nil
}

func (s *inMemoryVideoStore) RecordWatch(_ context.Context, accountID, videoID string, watchedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watched[accountID+"/"+videoID] = watchedAt
	return nil
}

func (s *inMemoryVideoStore) ListWatchHistory(_ context.Context, accountID string) ([]models.WatchEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.WatchEntry
	for key, watchedAt := range s.watched {
		if len(key) > len(accountID) && key[:len(accountID)] == accountID {
			if video, ok := s.videos[key[len(accountID)+1:]]; ok {
				out = append(out, models.WatchEntry{Video: video, WatchedAt: watchedAt})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WatchedAt.After(out[j].WatchedAt) })
	return out, nil
}

type inMemoryCommentStore struct {
	mu       sync.Mutex
	comments map[string]models.Comment
}

func newInMemoryCommentStore() *inMemoryCommentStore {
	return &inMemoryCommentStore{comments: make(map[string]models.Comment)}
}

func (s *inMemoryCommentStore) Create(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[comment.ID] = comment
	return nil
}

func (s *inMemoryCommentStore) FindByID(_ context.Context, id string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *inMemoryCommentStore) ListForVideo(_ context.Context, videoID string) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Comment
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			out = append(out, comment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *inMemoryCommentStore) Update(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[comment.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.comments[comment.ID] = comment
	return nil
}

func (s *inMemoryCommentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}
