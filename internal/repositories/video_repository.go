package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos
// and the per-account watch history.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, title, description, video_url, thumbnail_url, duration_seconds, views, published, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
		&v.DurationSeconds, &v.Views, &v.Published, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("scan video: %w", err)
	}
	return v, nil
}

func collectVideos(rows pgx.Rows) ([]models.Video, error) {
	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.VideoURL, &v.ThumbnailURL,
			&v.DurationSeconds, &v.Views, &v.Published, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration_seconds, views, published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoURL, video.ThumbnailURL,
		video.DurationSeconds, video.Views, video.Published, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// FindByID fetches a video by id.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	return scanVideo(row)
}

// ListPublished returns the public feed, newest first.
func (r *PostgresVideoRepository) ListPublished(ctx context.Context, limit, offset int) ([]models.Video, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE published
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2
    `, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query published videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

// ListByOwner returns every upload of a channel, newest first.
func (r *PostgresVideoRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoColumns+` FROM videos WHERE owner_id = $1 ORDER BY created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query owner videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

// Update modifies title, description, and thumbnail.
func (r *PostgresVideoRepository) Update(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET title = $2, description = $3, thumbnail_url = $4, updated_at = $5
        WHERE id = $1
    `, video.ID, video.Title, video.Description, video.ThumbnailURL, video.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPublished flips the publish flag.
func (r *PostgresVideoRepository) SetPublished(ctx context.Context, id string, published bool) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos SET published = $2, updated_at = NOW() WHERE id = $1
    `, id, published)
	if err != nil {
		return fmt.Errorf("update video published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter by one.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}
	return nil
}

// Delete removes a video record.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// OwnerTotals returns the video count and summed views for a channel.
func (r *PostgresVideoRepository) OwnerTotals(ctx context.Context, ownerID string) (videos int64, views int64, err error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
        SELECT COUNT(*), COALESCE(SUM(views), 0) FROM videos WHERE owner_id = $1
    `, ownerID).Scan(&videos, &views)
	if err != nil {
		return 0, 0, fmt.Errorf("owner video totals: %w", err)
	}
	return videos, views, nil
}

// RecordWatch upserts a watch-history entry, refreshing watched_at when the
// account rewatches a video.
func (r *PostgresVideoRepository) RecordWatch(ctx context.Context, accountID, videoID string, watchedAt time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (account_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (account_id, video_id)
        DO UPDATE SET watched_at = EXCLUDED.watched_at
    `, accountID, videoID, watchedAt.UTC())
	if err != nil {
		return fmt.Errorf("record watch: %w", err)
	}
	return nil
}

// ListWatchHistory returns the account's watch history, most recent first.
func (r *PostgresVideoRepository) ListWatchHistory(ctx context.Context, accountID string) ([]models.WatchEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration_seconds, v.views, v.published, v.created_at, v.updated_at,
               h.watched_at
        FROM watch_history h
        JOIN videos v ON v.id = h.video_id
        WHERE h.account_id = $1
        ORDER BY h.watched_at DESC
        LIMIT 100
    `, accountID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchEntry
	for rows.Next() {
		var e models.WatchEntry
		if err := rows.Scan(&e.Video.ID, &e.Video.OwnerID, &e.Video.Title, &e.Video.Description,
			&e.Video.VideoURL, &e.Video.ThumbnailURL, &e.Video.DurationSeconds, &e.Video.Views,
			&e.Video.Published, &e.Video.CreatedAt, &e.Video.UpdatedAt, &e.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan watch entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}
