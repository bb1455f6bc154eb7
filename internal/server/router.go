package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/swap-hub/swap-hub/internal/dispatch"
)

// AppOptions controls how the Fiber application should behave on a specific port.
type AppOptions struct {
	Logger     *logrus.Logger
	Registry   *Registry
	ListenPort int
}

const (
	contextKeyRequestID = "_swaphub_request_id"

	// HeaderCallerToken 是调用者身份令牌的请求头；身份在系统边界解析
	// 一次后显式传入每个 Dispatcher 操作。
	HeaderCallerToken = "X-Caller-Token"
)

// NewApp builds a Fiber application with request-ID middleware and structured
// error handling. Route handlers are attached separately by the routes package.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("dispatcher registry is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())

	return app, nil
}

// requestContextMiddleware 负责为每个请求生成并回写请求 ID。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the router middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

// CallerToken 从请求头提取调用者身份令牌；缺失时返回空身份（普通调用者）。
func CallerToken(c fiber.Ctx) dispatch.Identity {
	return dispatch.Identity(strings.TrimSpace(c.Get(HeaderCallerToken)))
}
