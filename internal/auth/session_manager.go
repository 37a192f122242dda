package auth

import (
	"context"
	"errors"

	"github.com/videotube/backend/internal/models"
)

// ErrSessionSuperseded indicates a refresh token that no longer matches the
// credential stored on the account: it was rotated away, revoked by logout,
// or never issued to that account.
var ErrSessionSuperseded = errors.New("refresh token superseded or revoked")

// SessionStore persists the single refresh credential held on each account
// row. Every write is atomic at the store; no application-level lock guards
// the credential.
type SessionStore interface {
	// SetRefreshCredential unconditionally replaces the stored fingerprint.
	SetRefreshCredential(ctx context.Context, accountID, fingerprint string) error
	// SwapRefreshCredential replaces the stored fingerprint only while it
	// still equals old, returning ErrSessionSuperseded otherwise.
	SwapRefreshCredential(ctx context.Context, accountID, old, new string) error
	// ClearRefreshCredential removes the stored fingerprint, invalidating
	// every outstanding refresh token for the account.
	ClearRefreshCredential(ctx context.Context, accountID string) error
}

// Manager owns the lifecycle of issued session credentials: issuance on
// login, rotation on refresh, revocation on logout.
type Manager struct {
	issuer *TokenIssuer
	store  SessionStore
}

// NewManager constructs a Manager backed by the provided issuer and store.
func NewManager(issuer *TokenIssuer, store SessionStore) *Manager {
	if issuer == nil || store == nil {
		panic("auth: token issuer and session store must not be nil")
	}
	return &Manager{issuer: issuer, store: store}
}

// Issue mints a fresh pair and unconditionally overwrites the account's
// stored refresh credential. A new issuance therefore invalidates any
// previously issued refresh token: one active session per account.
func (m *Manager) Issue(ctx context.Context, accountID string) (models.SessionTokens, error) {
	tokens, err := m.issuer.Mint(accountID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.SetRefreshCredential(ctx, accountID, Fingerprint(tokens.RefreshToken)); err != nil {
		return models.SessionTokens{}, err
	}

	return tokens, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// verify and must still match the account's stored credential; the swap to
// the new credential is a single compare-and-set at the store, so of two
// racing refreshes exactly one wins.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	accountID, err := m.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	tokens, err := m.issuer.Mint(accountID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.SwapRefreshCredential(ctx, accountID, Fingerprint(refreshToken), Fingerprint(tokens.RefreshToken)); err != nil {
		return models.SessionTokens{}, err
	}

	return tokens, nil
}

// Revoke clears the account's stored refresh credential. Outstanding access
// tokens keep working until their own expiry; outstanding refresh tokens are
// permanently unusable.
func (m *Manager) Revoke(ctx context.Context, accountID string) error {
	return m.store.ClearRefreshCredential(ctx, accountID)
}
