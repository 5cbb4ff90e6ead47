package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/storefront-assistant/utils"
	"go.uber.org/zap"
)

// TokenValidator turns a bearer token into claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// AuthMiddleware guards the routes that act on behalf of a signed-in shopper
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// authTokenCookieName is the cookie the storefront sets after login.
// The Authorization header takes precedence.
const authTokenCookieName = "auth_token"

// RequireAuth rejects the request with 401 unless it carries a valid token
// naming a positive user id. The claims are stored in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := m.logger.With(zap.String("request_id", GetRequestIDFromContext(ctx)))

		token := extractToken(r)
		if token == "" {
			log.Warn("missing token")
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		switch {
		case err != nil:
			log.Warn("token validation failed", zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		case claims.UserID <= 0:
			log.Warn("token carries no user id", zap.String("sub", claims.Sub))
			_ = utils.WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		log.Debug("authentication successful", zap.Int64("user_id", claims.UserID))
		next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
	})
}

// extractToken prefers "Authorization: Bearer <token>" and falls back to the auth_token cookie
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(authTokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
