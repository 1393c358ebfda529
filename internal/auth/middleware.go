package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/repository"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Person *domain.Person
	Role   domain.PersonRole
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	people repository.PersonRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, people repository.PersonRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, people: people}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	person, err := m.people.GetByID(c.UserContext(), claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("person not found")
		}
		return apperrors.MapError(err)
	}
	if !person.Active {
		return apperrors.NewUnauthorized("person inactive")
	}

	// role is re-read from storage so demotions apply before token expiry
	c.Locals(principalKey, &Principal{Person: person, Role: person.Role})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal.Person != nil
}

// WithPrincipal stores a principal on the request. Used by tests and internal callers.
func WithPrincipal(c *fiber.Ctx, principal *Principal) {
	c.Locals(principalKey, principal)
}
