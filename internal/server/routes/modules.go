package routes

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/swap-hub/swap-hub/internal/behavior"
	"github.com/swap-hub/swap-hub/internal/slotlayout"
)

// RegisterModuleRoutes 暴露 /-/modules 诊断接口，供 SRE 查询已注册模块
// 及其槽位布局。
func RegisterModuleRoutes(app *fiber.App) {
	if app == nil {
		return
	}

	app.Get("/-/modules", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"modules": encodeModules(behavior.List()),
		})
	})

	app.Get("/-/modules/:identity", func(c fiber.Ctx) error {
		identity := strings.ToLower(strings.TrimSpace(c.Params("identity")))
		if identity == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "module_identity_required"})
		}
		m, ok := behavior.Resolve(identity)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "module_not_found"})
		}
		return c.JSON(encodeModule(m))
	})
}

type modulePayload struct {
	Identity    string            `json:"identity"`
	Key         string            `json:"key"`
	Version     string            `json:"version"`
	Description string            `json:"description"`
	Layout      slotlayout.Layout `json:"layout"`
	Upgradable  bool              `json:"authorizes_upgrades"`
}

func encodeModules(mods []behavior.Module) []modulePayload {
	if len(mods) == 0 {
		return nil
	}
	sort.Slice(mods, func(i, j int) bool {
		return mods[i].Metadata().Identity() < mods[j].Metadata().Identity()
	})
	result := make([]modulePayload, 0, len(mods))
	for _, m := range mods {
		result = append(result, encodeModule(m))
	}
	return result
}

func encodeModule(m behavior.Module) modulePayload {
	meta := m.Metadata()
	_, upgradable := m.(behavior.UpgradeAuthorizer)
	return modulePayload{
		Identity:    meta.Identity(),
		Key:         meta.Key,
		Version:     meta.Version,
		Description: meta.Description,
		Layout:      m.Layout(),
		Upgradable:  upgradable,
	}
}
