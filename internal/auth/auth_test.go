package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/repository/memory"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

func TestTokenManager(t *testing.T) {
	tm := NewTokenManager("secret", 5)

	raw, meta, err := tm.GenerateToken("p1", domain.PersonRoleAdmin)
	require.NoError(t, err)
	require.Equal(t, "p1", meta.SubjectID)
	require.Equal(t, 5*time.Minute, meta.ExpiresAt.Sub(meta.IssuedAt))

	claims, err := tm.ParseToken(raw)
	require.NoError(t, err)
	require.Equal(t, "p1", claims.Subject)
	require.Equal(t, domain.PersonRoleAdmin, claims.Role)
	require.Equal(t, meta.ID, claims.ID)

	_, err = NewTokenManager("other", 5).ParseToken(raw)
	require.Error(t, err)

	tm.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = tm.ParseToken(raw)
	require.Error(t, err, "expired token must be rejected")
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	require.NoError(t, ComparePassword(hash, "s3cret"))
	require.Error(t, ComparePassword(hash, "wrong"))
	require.Error(t, ComparePassword("", ""))
}

func newTestApp(t *testing.T) (*fiber.App, *TokenManager, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	tokens := NewTokenManager("secret", 5)
	mw := NewAuthMiddleware(tokens, store.People())

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/me", mw.Handle, RequireAnyRole(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Person.Username)
	})
	app.Get("/admin", mw.Handle, RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app, tokens, store
}

func TestAuthMiddleware(t *testing.T) {
	app, tokens, store := newTestApp(t)
	ctx := context.Background()

	member := &domain.Person{Username: "ana", Role: domain.PersonRoleMember, Active: true}
	admin := &domain.Person{Username: "root", Role: domain.PersonRoleAdmin, Active: true}
	gone := &domain.Person{Username: "old", Role: domain.PersonRoleMember, Active: false}
	for _, p := range []*domain.Person{member, admin, gone} {
		require.NoError(t, store.People().Create(ctx, p))
	}
	token := func(p *domain.Person) string {
		raw, _, err := tokens.GenerateToken(p.ID, p.Role)
		require.NoError(t, err)
		return "Bearer " + raw
	}

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"bad scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc", http.StatusUnauthorized},
		{"member ok", "/me", token(member), http.StatusOK},
		{"inactive person", "/me", token(gone), http.StatusUnauthorized},
		{"member not admin", "/admin", token(member), http.StatusForbidden},
		{"admin ok", "/admin", token(admin), http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
