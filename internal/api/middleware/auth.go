package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	apierrors "github.com/narvanalabs/sitebuilder/internal/api/errors"
	"github.com/narvanalabs/sitebuilder/internal/auth"
)

// Context keys for token information.
type contextKey string

const (
	// RestaurantIDKey is the context key for the authenticated restaurant ID.
	RestaurantIDKey contextKey = "restaurant_id"
	// SubjectKey is the context key for the token subject.
	SubjectKey contextKey = "subject"
)

// GetRestaurantID extracts the restaurant ID from the request context.
func GetRestaurantID(ctx context.Context) string {
	if v, ok := ctx.Value(RestaurantIDKey).(string); ok {
		return v
	}
	return ""
}

// WithRestaurantID returns a context carrying restaurantID.
func WithRestaurantID(ctx context.Context, restaurantID string) context.Context {
	return context.WithValue(ctx, RestaurantIDKey, restaurantID)
}

// AuthMiddleware validates bearer tokens.
type AuthMiddleware struct {
	authService *auth.Service
	logger      *slog.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(authService *auth.Service, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		authService: authService,
		logger:      logger,
	}
}

// Authenticate is a middleware that validates the bearer token. Browsers
// cannot set headers on websocket upgrades, so the token may also be passed
// as the access_token query parameter.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			token = r.URL.Query().Get("access_token")
		}
		if token == "" {
			apierrors.WriteError(w, apierrors.Unauthorized("missing authentication"))
			return
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			m.logger.Debug("token validation failed", "error", err)
			if errors.Is(err, auth.ErrExpiredToken) {
				apierrors.WriteError(w, apierrors.Unauthorized("token has expired"))
				return
			}
			apierrors.WriteError(w, apierrors.Unauthorized("invalid token"))
			return
		}

		ctx := WithRestaurantID(r.Context(), claims.RestaurantID)
		ctx = context.WithValue(ctx, SubjectKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSite rejects requests whose token belongs to a restaurant other
// than the {siteID} in the path. A site is owned by the restaurant with the
// same ID.
func RequireSite(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			restaurantID := GetRestaurantID(r.Context())
			if restaurantID == "" {
				apierrors.WriteError(w, apierrors.Unauthorized("authentication required"))
				return
			}

			siteID := chi.URLParam(r, "siteID")
			if siteID != restaurantID {
				logger.Debug("site access denied",
					"restaurant_id", restaurantID,
					"site_id", siteID,
				)
				apierrors.WriteError(w, apierrors.Forbidden("access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireHookSecret authenticates provider callbacks with a shared secret in
// the X-Hook-Secret header. With an empty secret every callback is accepted
// if allowUnset is true and rejected otherwise.
func RequireHookSecret(secret string, allowUnset bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" && !allowUnset {
				apierrors.WriteError(w, apierrors.Unauthorized("provider callbacks are not configured"))
				return
			}
			if secret != "" && !auth.SecureCompare(r.Header.Get("X-Hook-Secret"), secret) {
				apierrors.WriteError(w, apierrors.Unauthorized("invalid hook secret"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
