package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oncall-service/internal/domain"
)

// RequireRole ensures the principal has one of the allowed roles.
func RequireRole(allowed ...domain.PersonRole) fiber.Handler {
	allowedSet := make(map[domain.PersonRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin is shorthand for RequireRole(ADMIN).
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.PersonRoleAdmin)
}

// RequireAnyRole ensures caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return RequireRole()
}
