package http

import (
	"context"
	"net/http"
	"strings"

	"rentdesk-backend/internal/logger"
	"rentdesk-backend/internal/security"
)

type contextKey string

const shopIDKey contextKey = "shop-id"

// AuthMiddleware validates the bearer token and injects the shop ID into the
// request context. Every route behind it is scoped to that shop.
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractBearerToken(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authorization token is not provided"})
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			logger.Debug("Token validation failed", "error", err)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		ctx := context.WithValue(r.Context(), shopIDKey, claims.ShopID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	if len(header) > 7 && strings.ToUpper(header[0:7]) == "BEARER " {
		return header[7:], true
	}
	return header, true
}

// ShopIDFromContext returns the authenticated shop ID injected by the
// middleware. The second return is false on unauthenticated contexts.
func ShopIDFromContext(ctx context.Context) (int32, bool) {
	shopID, ok := ctx.Value(shopIDKey).(int32)
	return shopID, ok
}
