package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/oncall-service/internal/api/dto"
	"github.com/spec-kit/oncall-service/internal/service"
)

// StatisticsHandler exposes workload statistics.
type StatisticsHandler struct {
	stats *service.StatisticsService
}

// NewStatisticsHandler constructs handler.
func NewStatisticsHandler(stats *service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

// Me handles GET /statistics/me.
func (h *StatisticsHandler) Me(c *fiber.Ctx) error {
	actor, err := currentPerson(c)
	if err != nil {
		return err
	}
	stat, err := h.stats.ForPerson(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatisticResponse(stat)})
}

// All handles GET /statistics.
func (h *StatisticsHandler) All(c *fiber.Ctx) error {
	stats, err := h.stats.All(c.UserContext())
	if err != nil {
		return err
	}
	data := make([]dto.StatisticResponse, 0, len(stats))
	for _, s := range stats {
		data = append(data, dto.NewStatisticResponse(s))
	}
	return c.JSON(fiber.Map{"data": data})
}
