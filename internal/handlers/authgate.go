package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/logging"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

// withAccountID stores the authenticated account identity on the context.
func withAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AccountIDFromContext returns the authenticated account id, or "" when the
// request never passed the authorization gate.
func AccountIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(accountIDKey).(string); ok {
		return id
	}
	return ""
}

// RequireAuth is the authorization gate. It accepts an access token from the
// Authorization header or the access cookie, verifies signature and expiry,
// confirms the embedded identity still resolves to a live account, and puts
// the identity on the request context. Anything else terminates with 401.
//
// Refresh tokens are never accepted here; only the dedicated refresh
// endpoint consumes them.
func RequireAuth(verifier AccessVerifier, accounts AccountStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			if token == "" {
				respondError(ctx, w, http.StatusUnauthorized, "authentication required")
				return
			}

			accountID, err := verifier.VerifyAccess(token)
			if err != nil {
				respondError(ctx, w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			exists, err := accounts.Exists(ctx, accountID)
			if err != nil {
				logging.FromContext(ctx).Error("account lookup failed", "error", err)
				respondError(ctx, w, http.StatusInternalServerError, "internal error")
				return
			}
			if !exists {
				respondError(ctx, w, http.StatusUnauthorized, "account no longer exists")
				return
			}

			next.ServeHTTP(w, r.WithContext(withAccountID(ctx, accountID)))
		})
	}
}

// OptionalAuth resolves the viewer identity when a valid access token is
// present but lets anonymous requests through. Used by public reads whose
// projection depends on who is looking (e.g. isSubscribed).
func OptionalAuth(verifier AccessVerifier, accounts AccountStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := bearerToken(r); token != "" {
				if accountID, err := verifier.VerifyAccess(token); err == nil {
					if exists, err := accounts.Exists(ctx, accountID); err == nil && exists {
						ctx = withAccountID(ctx, accountID)
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
