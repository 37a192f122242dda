package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// PostgresRelationshipRepository is the relationship ledger: directed, typed
// edges with a store-enforced uniqueness constraint per
// (edge_type, subject_id, object_id, target_kind).
type PostgresRelationshipRepository struct {
	pool db.Pool
}

// NewPostgresRelationshipRepository constructs a ledger backed by PostgreSQL.
func NewPostgresRelationshipRepository(pool db.Pool) *PostgresRelationshipRepository {
	return &PostgresRelationshipRepository{pool: pool}
}

// Toggle flips the edge for the key: deletes it when present, inserts it
// when absent. Each branch is one atomic statement, and the uniqueness
// constraint arbitrates insert races, so two simultaneous toggles can never
// leave two edges. A caller that loses the insert race retries the delete
// branch once so it still reports the operation it actually performed.
func (r *PostgresRelationshipRepository) Toggle(ctx context.Context, key models.EdgeKey) (bool, error) {
	if err := key.Validate(); err != nil {
		return false, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tag, err := conn.Exec(ctx, `
            DELETE FROM relationship_edges
            WHERE edge_type = $1 AND subject_id = $2 AND object_id = $3 AND target_kind = $4
        `, key.Type, key.SubjectID, key.ObjectID, key.TargetKind)
		if err != nil {
			return false, fmt.Errorf("delete relationship edge: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return false, nil
		}

		tag, err = conn.Exec(ctx, `
            INSERT INTO relationship_edges (id, edge_type, subject_id, object_id, target_kind, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (edge_type, subject_id, object_id, target_kind) DO NOTHING
        `, uuid.NewString(), key.Type, key.SubjectID, key.ObjectID, key.TargetKind, time.Now().UTC())
		if err != nil {
			return false, fmt.Errorf("insert relationship edge: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return true, nil
		}

		// A concurrent toggle created the edge between our delete and
		// insert. It exists now, so the next loop takes the delete branch.
	}

	return false, ErrContended
}

// CountEdges reports how many edges of the given type point at the object.
func (r *PostgresRelationshipRepository) CountEdges(ctx context.Context, objectID string, edgeType models.EdgeType, kind models.TargetKind) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM relationship_edges
        WHERE object_id = $1 AND edge_type = $2 AND target_kind = $3
    `, objectID, edgeType, kind).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count relationship edges: %w", err)
	}
	return count, nil
}

// CountBySubject reports how many edges of the given type the subject holds.
func (r *PostgresRelationshipRepository) CountBySubject(ctx context.Context, subjectID string, edgeType models.EdgeType, kind models.TargetKind) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM relationship_edges
        WHERE subject_id = $1 AND edge_type = $2 AND target_kind = $3
    `, subjectID, edgeType, kind).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count relationship edges by subject: %w", err)
	}
	return count, nil
}

// HasEdge reports whether the exact edge currently exists.
func (r *PostgresRelationshipRepository) HasEdge(ctx context.Context, key models.EdgeKey) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM relationship_edges
            WHERE edge_type = $1 AND subject_id = $2 AND object_id = $3 AND target_kind = $4
        )
    `, key.Type, key.SubjectID, key.ObjectID, key.TargetKind).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("relationship edge exists: %w", err)
	}
	return exists, nil
}

// ListSubscribers returns the accounts subscribed to the channel.
func (r *PostgresRelationshipRepository) ListSubscribers(ctx context.Context, channelID string) ([]models.AccountSummary, error) {
	return r.listAccounts(ctx, `
        SELECT a.id, a.username, a.email, a.full_name, a.avatar_url, a.cover_url, a.created_at
        FROM relationship_edges e
        JOIN accounts a ON a.id = e.subject_id
        WHERE e.object_id = $1 AND e.edge_type = 'subscription' AND e.target_kind = 'channel'
        ORDER BY e.created_at DESC
    `, channelID)
}

// ListSubscribedChannels returns the channels the subject subscribes to.
func (r *PostgresRelationshipRepository) ListSubscribedChannels(ctx context.Context, subjectID string) ([]models.AccountSummary, error) {
	return r.listAccounts(ctx, `
        SELECT a.id, a.username, a.email, a.full_name, a.avatar_url, a.cover_url, a.created_at
        FROM relationship_edges e
        JOIN accounts a ON a.id = e.object_id
        WHERE e.subject_id = $1 AND e.edge_type = 'subscription' AND e.target_kind = 'channel'
        ORDER BY e.created_at DESC
    `, subjectID)
}

func (r *PostgresRelationshipRepository) listAccounts(ctx context.Context, query, arg string) ([]models.AccountSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query related accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.AccountSummary
	for rows.Next() {
		var a models.AccountSummary
		if err := rows.Scan(&a.ID, &a.Username, &a.Email, &a.FullName, &a.AvatarURL, &a.CoverURL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan related account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate related accounts: %w", err)
	}

	return accounts, nil
}

// ListLikedVideos returns published videos the subject currently likes.
func (r *PostgresRelationshipRepository) ListLikedVideos(ctx context.Context, subjectID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration_seconds, v.views, v.published, v.created_at, v.updated_at
        FROM relationship_edges e
        JOIN videos v ON v.id = e.object_id
        WHERE e.subject_id = $1 AND e.edge_type = 'like' AND e.target_kind = 'video' AND v.published
        ORDER BY e.created_at DESC
    `, subjectID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	return collectVideos(rows)
}

// CountLikesForOwner counts like edges across all of the owner's videos.
// Feeds the dashboard stats view.
func (r *PostgresRelationshipRepository) CountLikesForOwner(ctx context.Context, ownerID string) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM relationship_edges e
        JOIN videos v ON v.id = e.object_id
        WHERE v.owner_id = $1 AND e.edge_type = 'like' AND e.target_kind = 'video'
    `, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count likes for owner: %w", err)
	}
	return count, nil
}

// DeleteForObject removes every edge pointing at the object. Called when the
// target itself is deleted.
func (r *PostgresRelationshipRepository) DeleteForObject(ctx context.Context, objectID string, kind models.TargetKind) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM relationship_edges WHERE object_id = $1 AND target_kind = $2
    `, objectID, kind); err != nil {
		return fmt.Errorf("delete edges for object: %w", err)
	}
	return nil
}

// DeleteForAccount removes every edge the account participates in, as
// subject or as subscription target. Called on account deletion.
func (r *PostgresRelationshipRepository) DeleteForAccount(ctx context.Context, accountID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM relationship_edges
        WHERE subject_id = $1 OR (object_id = $1 AND target_kind = 'channel')
    `, accountID); err != nil {
		return fmt.Errorf("delete edges for account: %w", err)
	}
	return nil
}
