package middleware

import (
	"context"
)

type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for token claims
	ClaimsKey contextKey = "claims"
)

// Claims is the authenticated shopper, as read from a bearer token.
// UserID is the numeric subject; Sub keeps the raw value for logging.
type Claims struct {
	Sub    string `json:"sub"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Iss    string `json:"iss"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// GetRequestIDFromContext returns the request id set by RequestID, or ""
func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext returns the claims stored by RequireAuth, or nil
func GetClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsKey).(*Claims)
	return claims
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetUserIDFromContext returns the authenticated user id, or 0 when the
// request carries no claims
func GetUserIDFromContext(ctx context.Context) int64 {
	if claims := GetClaimsFromContext(ctx); claims != nil {
		return claims.UserID
	}
	return 0
}
