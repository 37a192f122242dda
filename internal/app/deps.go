package app

import (
	"context"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		Issuer:        cfg.TokenIssuer,
		AccessKeyHex:  cfg.AccessTokenKeyHex,
		RefreshKeyHex: cfg.RefreshTokenKeyHex,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	})
	if err != nil {
		return handlers.Dependencies{}, err
	}

	accounts := repositories.NewPostgresAccountRepository(pool)

	var assets handlers.AssetStorage
	if cfg.ObjectStore.Bucket != "" {
		assets, err = storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, err
		}
	}

	limiter := middleware.NewIPRateLimiter(cfg.AuthRateRequests, cfg.AuthRateWindow, cfg.AuthRateBurst, cfg.AuthRateTTL)

	return handlers.Dependencies{
		Accounts:  accounts,
		Sessions:  auth.NewManager(issuer, accounts),
		Verifier:  issuer,
		Edges:     repositories.NewPostgresRelationshipRepository(pool),
		Videos:    repositories.NewPostgresVideoRepository(pool),
		Comments:  repositories.NewPostgresCommentRepository(pool),
		Tweets:    repositories.NewPostgresTweetRepository(pool),
		Playlists: repositories.NewPostgresPlaylistRepository(pool),
		Storage:   assets,
		Limiter:   limiter,
	}, nil
}
