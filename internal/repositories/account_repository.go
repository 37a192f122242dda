package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// PostgresAccountRepository provides PostgreSQL-backed persistence for accounts.
// It also implements auth.SessionStore: the refresh credential lives as a
// nullable column on the account row, mutated only through single atomic
// UPDATE statements.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

const accountColumns = `id, username, email, full_name, password_hash, avatar_url, cover_url, COALESCE(refresh_token_hash, ''), created_at, updated_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.FullName,
		&account.PasswordHash,
		&account.AvatarURL,
		&account.CoverURL,
		&account.RefreshTokenHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("scan account: %w", err)
	}
	return account, nil
}

// Create persists a new account record.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, username, email, full_name, password_hash, avatar_url, cover_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, account.ID, account.Username, account.Email, account.FullName, account.PasswordHash,
		account.AvatarURL, account.CoverURL, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByID fetches an account by its identifier.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// FindByIdentifier fetches an account by username or email.
func (r *PostgresAccountRepository) FindByIdentifier(ctx context.Context, identifier string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT `+accountColumns+`
        FROM accounts
        WHERE username = $1 OR email = $1
    `, identifier)
	return scanAccount(row)
}

// FindByUsername fetches an account by its unique handle.
func (r *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

// Exists reports whether the account id resolves to a live account.
func (r *PostgresAccountRepository) Exists(ctx context.Context, id string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("account exists: %w", err)
	}
	return exists, nil
}

// UpdateProfile modifies the mutable profile fields of an account.
func (r *PostgresAccountRepository) UpdateProfile(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET email = $2, full_name = $3, avatar_url = $4, cover_url = $5, updated_at = $6
        WHERE id = $1
    `, account.ID, account.Email, account.FullName, account.AvatarURL, account.CoverURL, account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdatePasswordHash replaces the stored secret hash.
func (r *PostgresAccountRepository) UpdatePasswordHash(ctx context.Context, id, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1
    `, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the account record. Dependent rows (videos, comments,
// edges) are cleaned up by the caller or by FK cascade.
func (r *PostgresAccountRepository) Delete(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshCredential unconditionally replaces the stored refresh
// fingerprint. Last writer wins; only that writer's refresh token remains
// valid.
func (r *PostgresAccountRepository) SetRefreshCredential(ctx context.Context, accountID, fingerprint string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts SET refresh_token_hash = $2 WHERE id = $1
    `, accountID, fingerprint)
	if err != nil {
		return fmt.Errorf("set refresh credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SwapRefreshCredential replaces the stored fingerprint only while it still
// equals old. The WHERE clause makes the compare-and-set a single atomic
// statement; zero rows means the credential was rotated away or revoked.
func (r *PostgresAccountRepository) SwapRefreshCredential(ctx context.Context, accountID, old, new string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET refresh_token_hash = $3
        WHERE id = $1 AND refresh_token_hash = $2
    `, accountID, old, new)
	if err != nil {
		return fmt.Errorf("swap refresh credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrSessionSuperseded
	}
	return nil
}

// ClearRefreshCredential removes the stored fingerprint, revoking every
// outstanding refresh token for the account.
func (r *PostgresAccountRepository) ClearRefreshCredential(ctx context.Context, accountID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        UPDATE accounts SET refresh_token_hash = NULL WHERE id = $1
    `, accountID); err != nil {
		return fmt.Errorf("clear refresh credential: %w", err)
	}
	return nil
}

var _ auth.SessionStore = (*PostgresAccountRepository)(nil)
