package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/oncall-service/internal/auth"
	"github.com/spec-kit/oncall-service/internal/domain"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

func currentPerson(c *fiber.Ctx) (*domain.Person, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Person, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// idParam reads the :id route param. Malformed ids cannot exist, so they are
// reported as missing rather than reaching storage.
func idParam(c *fiber.Ctx, resource string) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	}
	return id, nil
}
