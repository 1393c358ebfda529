package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oncall-service/internal/api/dto"
	"github.com/spec-kit/oncall-service/internal/service"
)

// NotificationsHandler exposes the caller's notification inbox.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// List handles GET /notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	list, err := h.notifications.ListForPerson(c.UserContext(), actor)
	if err != nil {
		return err
	}
	data := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		data = append(data, dto.NewNotificationResponse(n))
	}
	return c.JSON(fiber.Map{"data": data})
}

// MarkSent handles PATCH /notifications/:id/sent.
func (h *NotificationsHandler) MarkSent(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "notification")
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkSent(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNotificationResponse(*n)})
}

// Delete handles DELETE /notifications/:id.
func (h *NotificationsHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "notification")
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
