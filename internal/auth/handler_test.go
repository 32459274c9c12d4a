package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/austral-pos/austral-pos/internal/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubRepo struct {
	user *User
}

func (r *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if r.user == nil || r.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return r.user, nil
}

func testUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &User{
		ID:           7,
		Email:        "vendedor@austral.cl",
		Name:         "Vendedor",
		PasswordHash: string(hash),
		BranchID:     2,
		IsActive:     true,
	}
}

func newTestRouter(service *Service, handler *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/auth", func(ar chi.Router) {
		handler.MountRoutes(ar)
		ar.Group(func(protected chi.Router) {
			protected.Use(service.Middleware)
			protected.Get("/me", handler.Me)
		})
	})
	return r
}

func TestLoginIssuesUsableToken(t *testing.T) {
	repo := &stubRepo{user: testUser(t, "secret-password")}
	service := NewService(repo, "test-signing-key", time.Hour)
	handler := NewHandler(discardLogger(), service)
	router := newTestRouter(service, handler)

	body := `{"email":"vendedor@austral.cl","password":"secret-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"token"`)

	identity, err := service.ParseToken(extractToken(t, rec.Body.String()))
	require.NoError(t, err)
	require.Equal(t, int64(7), identity.UserID)
	require.Equal(t, int64(2), identity.BranchID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	repo := &stubRepo{user: testUser(t, "secret-password")}
	service := NewService(repo, "test-signing-key", time.Hour)
	handler := NewHandler(discardLogger(), service)
	router := newTestRouter(service, handler)

	body := `{"email":"vendedor@austral.cl","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	user := testUser(t, "secret-password")
	user.IsActive = false
	service := NewService(&stubRepo{user: user}, "test-signing-key", time.Hour)
	handler := NewHandler(discardLogger(), service)
	router := newTestRouter(service, handler)

	body := `{"email":"vendedor@austral.cl","password":"secret-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresBearerToken(t *testing.T) {
	repo := &stubRepo{user: testUser(t, "secret-password")}
	service := NewService(repo, "test-signing-key", time.Hour)
	handler := NewHandler(discardLogger(), service)
	router := newTestRouter(service, handler)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := service.IssueToken(repo.user)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "vendedor@austral.cl")
}

func TestParseTokenRejectsTampering(t *testing.T) {
	repo := &stubRepo{user: testUser(t, "secret-password")}
	service := NewService(repo, "test-signing-key", time.Hour)

	token, _, err := service.IssueToken(repo.user)
	require.NoError(t, err)

	other := NewService(repo, "different-key", time.Hour)
	_, err = other.ParseToken(token)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)

	_, err = service.ParseToken(token + "x")
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func extractToken(t *testing.T, body string) string {
	t.Helper()
	const marker = `"token":"`
	start := strings.Index(body, marker)
	require.GreaterOrEqual(t, start, 0)
	rest := body[start+len(marker):]
	end := strings.Index(rest, `"`)
	require.GreaterOrEqual(t, end, 0)
	return rest[:end]
}
