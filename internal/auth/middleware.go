package auth

import (
	"net/http"
	"strings"

	"github.com/austral-pos/austral-pos/internal/platform/httpx"
	"github.com/austral-pos/austral-pos/internal/shared"
)

// Middleware validates bearer tokens and injects the caller identity.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		identity, err := s.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		ctx := shared.ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
