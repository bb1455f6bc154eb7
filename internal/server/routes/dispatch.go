package routes

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/swap-hub/swap-hub/internal/behavior"
	"github.com/swap-hub/swap-hub/internal/dispatch"
	"github.com/swap-hub/swap-hub/internal/selector"
	"github.com/swap-hub/swap-hub/internal/server"
)

// RegisterDispatchRoutes 挂载调用与管理入口：
//
//	POST /d/:dispatcher/init            初始化（请求体原样传给模块）
//	POST /d/:dispatcher/call/:selector  转发一次操作调用
//	POST /-/admin/:dispatcher/upgrade   替换活动模块
//	POST /-/admin/:dispatcher/transfer  移交管理员身份
//
// 调用者身份始终来自 X-Caller-Token 请求头，负载与结果按原始字节透传。
func RegisterDispatchRoutes(app *fiber.App, registry *server.Registry, logger *logrus.Logger) {
	if app == nil || registry == nil || logger == nil {
		return
	}

	app.Post("/d/:dispatcher/init", func(c fiber.Ctx) error {
		d, ok := lookupDispatcher(c, registry)
		if !ok {
			return renderDispatcherUnknown(c)
		}
		result, err := d.Initialize(requestContext(c), server.CallerToken(c), c.Body())
		if err != nil {
			return renderDispatchError(c, logger, d.Name(), err)
		}
		return sendResult(c, result)
	})

	app.Post("/d/:dispatcher/call/:selector", func(c fiber.Ctx) error {
		d, ok := lookupDispatcher(c, registry)
		if !ok {
			return renderDispatcherUnknown(c)
		}
		sel, err := selector.Parse(c.Params("selector"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_selector"})
		}
		result, err := d.Forward(requestContext(c), server.CallerToken(c), sel, c.Body())
		if err != nil {
			return renderDispatchError(c, logger, d.Name(), err)
		}
		return sendResult(c, result)
	})

	app.Post("/-/admin/:dispatcher/upgrade", func(c fiber.Ctx) error {
		d, ok := lookupDispatcher(c, registry)
		if !ok {
			return renderDispatcherUnknown(c)
		}
		var req upgradeRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil || strings.TrimSpace(req.Module) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "module_identity_required"})
		}
		next, ok := behavior.Resolve(req.Module)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "module_not_found"})
		}
		if err := d.Upgrade(requestContext(c), server.CallerToken(c), next); err != nil {
			return renderDispatchError(c, logger, d.Name(), err)
		}
		return c.JSON(fiber.Map{
			"active_module": next.Metadata().Identity(),
		})
	})

	app.Post("/-/admin/:dispatcher/transfer", func(c fiber.Ctx) error {
		d, ok := lookupDispatcher(c, registry)
		if !ok {
			return renderDispatcherUnknown(c)
		}
		var req transferRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil || strings.TrimSpace(req.AdminToken) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "admin_token_required"})
		}
		if err := d.TransferAdmin(requestContext(c), server.CallerToken(c), dispatch.Identity(req.AdminToken)); err != nil {
			return renderDispatchError(c, logger, d.Name(), err)
		}
		return c.JSON(fiber.Map{"result": "transferred"})
	})
}

type upgradeRequest struct {
	Module string `json:"module"`
}

type transferRequest struct {
	AdminToken string `json:"admin_token"`
}

func lookupDispatcher(c fiber.Ctx, registry *server.Registry) (*dispatch.Dispatcher, bool) {
	name := strings.TrimSpace(c.Params("dispatcher"))
	if name == "" {
		return nil, false
	}
	return registry.Lookup(name)
}

func renderDispatcherUnknown(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "dispatcher_unknown"})
}

// sendResult 按原始字节返回模块结果；空结果输出空 200 响应体。
func sendResult(c fiber.Ctx, result []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Status(fiber.StatusOK).Send(result)
}

// renderDispatchError 将调用失败映射为 HTTP 响应：模块业务失败按原始负载
// 透传 422，其余错误只输出机器可读码，不泄露内部细节。
func renderDispatchError(c fiber.Ctx, logger *logrus.Logger, dispatcher string, err error) error {
	if failure, ok := behavior.AsFailure(err); ok {
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
		return c.Status(fiber.StatusUnprocessableEntity).Send(failure.Payload)
	}

	code := dispatch.Code(err)
	logger.WithFields(logrus.Fields{
		"action":     "dispatch_error",
		"dispatcher": dispatcher,
		"error":      code,
		"request_id": server.RequestID(c),
	}).Warn(err.Error())

	return c.Status(statusForCode(code)).JSON(fiber.Map{"error": code})
}

func statusForCode(code string) int {
	switch code {
	case "not_initialized", "already_initialized", "layout_incompatible":
		return fiber.StatusConflict
	case "no_active_module":
		return fiber.StatusServiceUnavailable
	case "unauthorized_upgrade", "admin_forward_forbidden", "unauthorized_transfer":
		return fiber.StatusForbidden
	case "unknown_operation":
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// requestContext 提取请求生命周期绑定的 context；fasthttp 在极端情况下
// 可能返回 nil，回退到 Background。
func requestContext(c fiber.Ctx) context.Context {
	ctx := c.Context()
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
