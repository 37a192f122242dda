package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/metrics"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

const maxUploadBytes = 512 << 20

// AuthHandler implements account registration and session endpoints.
type AuthHandler struct {
	Accounts AccountStore
	Sessions SessionManager
	Storage  AssetStorage
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Register handles POST /api/v1/auth/register. Accepts a JSON body or a
// multipart form with optional avatar and cover uploads.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many attempts, slow down")
		return
	}

	req, avatar, cover, err := h.decodeRegister(r)
	if err != nil {
		logger.Warn("invalid register payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.now()
	account := models.Account{
		ID:        uuid.NewString(),
		Username:  req.Username,
		Email:     req.Email,
		FullName:  req.FullName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	account.PasswordHash, err = auth.HashPassword(req.Password, 0)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if avatar != nil {
		account.AvatarURL, err = h.saveUpload(r, avatar, "avatars", account.ID)
		if err != nil {
			logger.Error("avatar upload failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store avatar")
			return
		}
	}
	if cover != nil {
		account.CoverURL, err = h.saveUpload(r, cover, "covers", account.ID)
		if err != nil {
			logger.Error("cover upload failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store cover image")
			return
		}
	}

	if err := h.Accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("register conflict", "username", req.Username)
			respondError(ctx, w, http.StatusConflict, "username or email already registered")
			return
		}
		logger.Error("failed to create account", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, account.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "accountId", account.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	metrics.TokensIssuedTotal.WithLabelValues("register").Inc()
	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusCreated, "account registered", sessionResponse{
		Account: account.Summary(),
		Tokens:  tokens,
	})
}

// Login handles POST /api/v1/auth/login.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many attempts, slow down")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" {
		identifier = req.Email
	}
	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if identifier == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "username or email and password are required")
		return
	}

	account, err := h.Accounts.FindByIdentifier(ctx, identifier)
	if err != nil {
		logger.Warn("login account lookup failed", "identifier", identifier, "error", err)
		metrics.AuthFailuresTotal.WithLabelValues("unknown_account").Inc()
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !auth.VerifyPassword(account.PasswordHash, req.Password) {
		logger.Warn("login password mismatch", "accountId", account.ID)
		metrics.AuthFailuresTotal.WithLabelValues("bad_password").Inc()
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, account.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "accountId", account.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	metrics.TokensIssuedTotal.WithLabelValues("login").Inc()
	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, "logged in", sessionResponse{
		Account: account.Summary(),
		Tokens:  tokens,
	})
}

// Refresh handles POST /api/v1/auth/refresh. The refresh token arrives in
// the body or the refresh cookie; it must verify and still match the
// credential stored on the account, otherwise 401.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "refresh") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many attempts, slow down")
		return
	}

	var req refreshRequest
	// Body is optional when the cookie carries the token.
	_ = decodeJSON(r, &req)

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrSessionSuperseded) {
			logger.Warn("refresh rejected", "error", err)
			metrics.AuthFailuresTotal.WithLabelValues("bad_refresh").Inc()
			respondError(ctx, w, http.StatusUnauthorized, "invalid or expired refresh token")
			return
		}
		logger.Error("refresh failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to refresh session")
		return
	}

	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, "session refreshed", sessionResponse{Tokens: tokens})
}

// Logout handles POST /api/v1/auth/logout. Requires the authorization gate.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := AccountIDFromContext(ctx)

	if err := h.Sessions.Revoke(ctx, accountID); err != nil {
		logging.FromContext(ctx).Error("logout failed", "error", err, "accountId", accountID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to end session")
		return
	}

	clearSessionCookies(w)
	respondData(ctx, w, http.StatusOK, "logged out", nil)
}

// Me handles GET /api/v1/auth/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	account, err := h.Accounts.FindByID(ctx, AccountIDFromContext(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "account not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "current account", account.Summary())
}

// UpdateMe handles PATCH /api/v1/auth/me.
func (h AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid account update payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.Accounts.FindByID(ctx, AccountIDFromContext(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "account not found")
		return
	}

	if req.FullName != "" {
		account.FullName = strings.TrimSpace(req.FullName)
	}
	if req.Email != "" {
		email := strings.TrimSpace(strings.ToLower(req.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			respondError(ctx, w, http.StatusBadRequest, "invalid email address")
			return
		}
		account.Email = email
	}
	account.UpdatedAt = h.now()

	if err := h.Accounts.UpdateProfile(ctx, account); err != nil {
		respondStoreError(ctx, w, err, "account not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "account updated", account.Summary())
}

// ChangePassword handles POST /api/v1/auth/me/password.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Warn("invalid password change payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	account, err := h.Accounts.FindByID(ctx, AccountIDFromContext(ctx))
	if err != nil {
		respondStoreError(ctx, w, err, "account not found")
		return
	}

	if !auth.VerifyPassword(account.PasswordHash, req.OldPassword) {
		respondError(ctx, w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword, 0)
	if err != nil {
		logger.Error("failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	if err := h.Accounts.UpdatePasswordHash(ctx, account.ID, hashed); err != nil {
		respondStoreError(ctx, w, err, "account not found")
		return
	}

	respondData(ctx, w, http.StatusOK, "password changed", nil)
}

// DeleteMe handles DELETE /api/v1/auth/me. Terminal: the account, its
// session, and every relationship edge it participates in are removed.
func (h AuthHandler) DeleteMe(edges RelationshipStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID := AccountIDFromContext(ctx)
		logger := logging.FromContext(ctx)

		if err := edges.DeleteForAccount(ctx, accountID); err != nil {
			logger.Error("failed to remove account edges", "error", err, "accountId", accountID)
			respondError(ctx, w, http.StatusInternalServerError, "failed to delete account")
			return
		}

		if err := h.Accounts.Delete(ctx, accountID); err != nil {
			respondStoreError(ctx, w, err, "account not found")
			return
		}

		clearSessionCookies(w)
		respondData(ctx, w, http.StatusOK, "account deleted", nil)
	}
}

func (h AuthHandler) decodeRegister(r *http.Request) (registerRequest, *multipart.FileHeader, *multipart.FileHeader, error) {
	var req registerRequest
	var avatar, cover *multipart.FileHeader

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return req, nil, nil, errors.New("invalid multipart form")
		}
		req.Username = r.FormValue("username")
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
		req.FullName = r.FormValue("fullName")
		if headers := r.MultipartForm.File["avatar"]; len(headers) > 0 {
			avatar = headers[0]
		}
		if headers := r.MultipartForm.File["coverImage"]; len(headers) > 0 {
			cover = headers[0]
		}
	} else if err := decodeJSON(r, &req); err != nil {
		return req, nil, nil, errors.New("invalid request body")
	}

	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return req, nil, nil, errors.New("username, email, and password are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return req, nil, nil, errors.New("invalid email address")
	}
	if len(req.Password) < 8 {
		return req, nil, nil, errors.New("password must be at least 8 characters")
	}

	return req, avatar, cover, nil
}

func (h AuthHandler) saveUpload(r *http.Request, header *multipart.FileHeader, prefix, ownerID string) (string, error) {
	if h.Storage == nil {
		return "", errors.New("asset storage unavailable")
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%s%s", prefix, ownerID, path.Ext(header.Filename))
	return h.Storage.Save(r.Context(), key, header.Header.Get("Content-Type"), file)
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type sessionResponse struct {
	Account models.AccountSummary `json:"account,omitzero"`
	Tokens  models.SessionTokens  `json:"tokens"`
}
