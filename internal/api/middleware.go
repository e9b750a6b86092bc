package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const ownerContextKey = contextKey("owner")

var errMalformedAuthHeader = errors.New("authorization header is not a bearer token")

// AuthMiddleware resolves "Authorization: Bearer <token>" to the owning
// username. The response does not say which check failed.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := s.authenticate(r.Header.Get("Authorization"))
		if err != nil {
			s.logger.Debug("rejected request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Any("error", err))
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(withOwner(r.Context(), owner)))
	})
}

func (s *Server) authenticate(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" || strings.Contains(token, " ") {
		return "", errMalformedAuthHeader
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.Username(), nil
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

func withOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerContextKey, owner)
}

// OwnerFromContext returns the authenticated username, or "" outside
// AuthMiddleware.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerContextKey).(string)
	return owner
}
