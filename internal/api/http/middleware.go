package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/oncall-service/internal/observability"
	apperrors "github.com/spec-kit/oncall-service/pkg/util"
)

// RegisterMiddlewares attaches global middlewares. The request logger wraps the
// error renderer so it observes the final status code.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestid.New())
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
}

// requestTimeoutMiddleware bounds the user context; allocation runs stop
// between days once it expires.
func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// ErrorHandler renders errors that escape the middleware chain, such as
// unmatched routes, in the same envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return renderError(c, apperrors.ToDomainError(err))
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}
			domainErr := apperrors.ToDomainError(err)
			metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
			if domainErr.HTTPStatus >= 500 {
				logger.Error("request failed",
					zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
					zap.Error(domainErr))
			}
			err = renderError(c, domainErr)
		}()
		return c.Next()
	}
}

func renderError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}
