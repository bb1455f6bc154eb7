package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/swap-hub/swap-hub/internal/server"
)

// RegisterDispatcherRoutes 暴露 /-/dispatchers 诊断接口，输出每个
// Dispatcher 的状态快照。快照不含管理员令牌。
func RegisterDispatcherRoutes(app *fiber.App, registry *server.Registry) {
	if app == nil || registry == nil {
		return
	}

	app.Get("/-/dispatchers", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"dispatchers": registry.List(),
		})
	})

	app.Get("/-/dispatchers/:dispatcher", func(c fiber.Ctx) error {
		d, ok := lookupDispatcher(c, registry)
		if !ok {
			return renderDispatcherUnknown(c)
		}
		return c.JSON(d.Status())
	})
}
