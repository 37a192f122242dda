package auth

import (
	"errors"
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/videotube/backend/internal/models"
)

// ErrInvalidToken indicates a token that failed decryption, claim checks, or
// expiry. Callers must treat it as "unauthenticated" without further detail.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenConfig carries the signing material and lifetimes for issued tokens.
type TokenConfig struct {
	Issuer        string
	AccessKeyHex  string
	RefreshKeyHex string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenIssuer mints and verifies the paired session credentials as paseto
// v4.local tokens. Access and refresh tokens are encrypted with distinct
// keys so one can never stand in for the other.
type TokenIssuer struct {
	issuer     string
	accessKey  paseto.V4SymmetricKey
	refreshKey paseto.V4SymmetricKey
	accessTTL  time.Duration
	refreshTTL time.Duration

	nowFunc func() time.Time
}

// NewTokenIssuer parses the configured hex keys and returns a ready issuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if cfg.AccessKeyHex == "" || cfg.RefreshKeyHex == "" {
		return nil, errors.New("auth: access and refresh token keys are required")
	}
	accessKey, err := paseto.V4SymmetricKeyFromHex(cfg.AccessKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse access token key: %w", err)
	}
	refreshKey, err := paseto.V4SymmetricKeyFromHex(cfg.RefreshKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse refresh token key: %w", err)
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "videotube"
	}

	return &TokenIssuer{
		issuer:     issuer,
		accessKey:  accessKey,
		refreshKey: refreshKey,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		nowFunc:    time.Now,
	}, nil
}

// Mint builds a fresh access/refresh pair bound to the account identity.
// Minting alone has no side effects; persisting the refresh credential is
// the Manager's job.
func (t *TokenIssuer) Mint(accountID string) (models.SessionTokens, error) {
	if accountID == "" {
		return models.SessionTokens{}, errors.New("account id must be provided")
	}

	now := t.nowFunc().UTC()

	access, accessExp := t.encrypt(t.accessKey, accountID, now, t.accessTTL)
	refresh, refreshExp := t.encrypt(t.refreshKey, accountID, now, t.refreshTTL)

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (t *TokenIssuer) encrypt(key paseto.V4SymmetricKey, accountID string, now time.Time, ttl time.Duration) (string, time.Time) {
	exp := now.Add(ttl)

	tok := paseto.NewToken()
	tok.SetIssuer(t.issuer)
	tok.SetSubject(accountID)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)

	return tok.V4Encrypt(key, nil), exp
}

// VerifyAccess validates an access token and returns the embedded account id.
func (t *TokenIssuer) VerifyAccess(token string) (string, error) {
	return t.verify(t.accessKey, token)
}

// VerifyRefresh validates a refresh token and returns the embedded account id.
// The stored-credential equality check happens at the session store, not here.
func (t *TokenIssuer) VerifyRefresh(token string) (string, error) {
	return t.verify(t.refreshKey, token)
}

func (t *TokenIssuer) verify(key paseto.V4SymmetricKey, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	// Fresh parser per call so rules never accumulate across verifies.
	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(t.issuer))
	p.AddRule(paseto.NotExpired())
	p.AddRule(paseto.ValidAt(t.nowFunc().UTC()))

	parsed, err := p.ParseV4Local(key, token, nil)
	if err != nil {
		return "", ErrInvalidToken
	}

	accountID, err := parsed.GetSubject()
	if err != nil || accountID == "" {
		return "", ErrInvalidToken
	}

	return accountID, nil
}
