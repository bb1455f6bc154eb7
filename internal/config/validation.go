package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/swap-hub/swap-hub/internal/behavior"
	"github.com/swap-hub/swap-hub/internal/dispatch"
	"github.com/swap-hub/swap-hub/internal/store"
)

var supportedDrivers = map[string]struct{}{
	store.DriverFile:   {},
	store.DriverSQLite: {},
}

const supportedDriverList = "file|sqlite"

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.StoragePath == "" {
		return newFieldError("Global.StoragePath", "不能为空")
	}
	if _, ok := supportedDrivers[g.StorageDriver]; !ok {
		return newFieldError("Global.StorageDriver", "仅支持 "+supportedDriverList)
	}
	if g.ShutdownTimeout.DurationValue() <= 0 {
		return newFieldError("Global.ShutdownTimeout", "必须大于 0")
	}

	if len(c.Dispatchers) == 0 {
		return errors.New("至少需要配置一个 Dispatcher")
	}

	seenNames := map[string]struct{}{}
	for i := range c.Dispatchers {
		d := &c.Dispatchers[i]
		if d.Name == "" {
			return newFieldError("Dispatcher[].Name", "不能为空")
		}
		if err := validateName(d.Name); err != nil {
			return fmt.Errorf("%s: %w", dispatcherField(d.Name, "Name"), err)
		}
		if _, exists := seenNames[d.Name]; exists {
			return newFieldError(dispatcherField(d.Name, "Name"), "重复")
		}
		seenNames[d.Name] = struct{}{}

		if d.Module == "" {
			return newFieldError(dispatcherField(d.Name, "Module"), "不能为空")
		}
		if _, ok := behavior.Resolve(d.Module); !ok {
			return newFieldError(dispatcherField(d.Name, "Module"), fmt.Sprintf("未注册模块: %s", d.Module))
		}

		if d.AdminToken == "" {
			return newFieldError(dispatcherField(d.Name, "AdminToken"), "不能为空")
		}

		if _, err := dispatch.ParsePolicy(d.Policy); err != nil {
			return newFieldError(dispatcherField(d.Name, "Policy"), "仅支持 separated/module-authorized")
		}
	}

	return nil
}

// validateName 限制 Dispatcher 名称只使用 URL 与文件系统都安全的字符，
// 因为它同时出现在路由路径与存储目录里。
func validateName(name string) error {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return fmt.Errorf("包含非法字符 %q，仅允许字母、数字、- 和 _", r)
		}
	}
	if strings.HasPrefix(name, "-") {
		return errors.New("不能以 - 开头")
	}
	return nil
}
