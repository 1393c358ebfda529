package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oncall-service/internal/api/dto"
	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/service"
)

// AuthHandler exposes login and roster management.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	person, token, meta, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"person": personResponse(person),
			"auth":   dto.AuthResponse{Token: token, ExpiresAt: meta.ExpiresAt},
		},
	})
}

// CreatePerson handles POST /people.
func (h *AuthHandler) CreatePerson(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	var req dto.CreatePersonRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	person := &domain.Person{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Role:     domain.PersonRole(req.Role),
	}
	if err := h.auth.Register(c.UserContext(), actor, person, req.Password); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": personResponse(person)})
}

// ListPeople handles GET /people.
func (h *AuthHandler) ListPeople(c *fiber.Ctx) error {
	people, err := h.auth.Roster(c.UserContext())
	if err != nil {
		return err
	}
	data := make([]dto.PersonResponse, 0, len(people))
	for i := range people {
		data = append(data, personResponse(&people[i]))
	}
	return c.JSON(fiber.Map{"data": data})
}

// Me handles GET /people/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	person, err := currentPerson(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": personResponse(person)})
}

// ChangePassword handles PATCH /people/me/password.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	person, err := currentPerson(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	if err := h.auth.ChangePassword(c.UserContext(), person, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpdatePerson handles PATCH /people/:id.
func (h *AuthHandler) UpdatePerson(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "person")
	if err != nil {
		return err
	}
	var req dto.UpdatePersonRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	update := service.PersonUpdate{Name: req.Name, Email: req.Email, Active: req.Active}
	if req.Role != nil {
		role := domain.PersonRole(*req.Role)
		update.Role = &role
	}
	person, err := h.auth.UpdatePerson(c.UserContext(), actor, id, update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": personResponse(person)})
}

// DeactivatePerson handles DELETE /people/:id.
func (h *AuthHandler) DeactivatePerson(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "person")
	if err != nil {
		return err
	}
	if err := h.auth.Deactivate(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func personResponse(p *domain.Person) dto.PersonResponse {
	return dto.PersonResponse{
		ID:       p.ID,
		Username: p.Username,
		Name:     p.Name,
		Email:    p.Email,
		Role:     string(p.Role),
		IsAdmin:  p.IsAdmin(),
		Active:   p.Active,
	}
}
