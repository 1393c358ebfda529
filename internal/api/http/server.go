package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/oncall-service/internal/observability"
)

// NewApp builds the fiber application with middlewares and routes attached.
func NewApp(name string, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, logger, metrics, timeout)
	RegisterRoutes(app, routes)
	return app
}
