package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oncall-service/internal/api/dto"
	"github.com/spec-kit/oncall-service/internal/service"
)

// ShiftsHandler exposes allocation runs and shift maintenance.
type ShiftsHandler struct {
	rotation *service.RotationService
}

// NewShiftsHandler constructs handler.
func NewShiftsHandler(rotation *service.RotationService) *ShiftsHandler {
	return &ShiftsHandler{rotation: rotation}
}

// Assign handles POST /shifts/assign.
func (h *ShiftsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRangeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	result, err := h.rotation.AssignRange(c.UserContext(), req.StartDate, req.EndDate)
	if err != nil {
		return err
	}
	return c.JSON(dto.AssignRangeResponse{
		Status:     "completed",
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Assigned:   result.Assigned,
		Unassigned: result.Unassigned,
	})
}

// List handles GET /shifts.
func (h *ShiftsHandler) List(c *fiber.Ctx) error {
	query := service.ShiftQuery{
		PersonID: c.Query("person_id"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	}
	shifts, err := h.rotation.ListShifts(c.UserContext(), query)
	if err != nil {
		return err
	}
	data := make([]dto.ShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		data = append(data, dto.NewShiftResponse(s))
	}
	return c.JSON(fiber.Map{"data": data})
}

// Reschedule handles PATCH /shifts/:id/date.
func (h *ShiftsHandler) Reschedule(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "shift")
	if err != nil {
		return err
	}
	var req dto.RescheduleShiftRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	shift, err := h.rotation.RescheduleShift(c.UserContext(), actor, id, req.Date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewShiftResponse(*shift)})
}
