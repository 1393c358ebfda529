package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oncall-service/internal/api/dto"
	"github.com/spec-kit/oncall-service/internal/service"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

// UnavailabilityHandler manages the caller's excluded dates.
type UnavailabilityHandler struct {
	svc *service.UnavailabilityService
}

// NewUnavailabilityHandler constructs handler.
func NewUnavailabilityHandler(svc *service.UnavailabilityService) *UnavailabilityHandler {
	return &UnavailabilityHandler{svc: svc}
}

// Create handles POST /unavailability.
func (h *UnavailabilityHandler) Create(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	var req dto.UnavailabilityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	record, err := h.svc.Create(c.UserContext(), actor, req.Date)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUnavailabilityResponse(*record)})
}

// List handles GET /unavailability?month=&year=.
func (h *UnavailabilityHandler) List(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	month := c.QueryInt("month", 0)
	year := c.QueryInt("year", 0)
	records, err := h.svc.List(c.UserContext(), actor, year, month)
	if err != nil {
		return err
	}
	data := make([]dto.UnavailabilityResponse, 0, len(records))
	for _, r := range records {
		data = append(data, dto.NewUnavailabilityResponse(r))
	}
	return c.JSON(fiber.Map{"data": data})
}

// Delete handles DELETE /unavailability?date=.
func (h *UnavailabilityHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	date := c.Query("date")
	if date == "" {
		return apperrors.NewValidationError("date is required", nil)
	}
	if err := h.svc.Delete(c.UserContext(), actor, date); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
