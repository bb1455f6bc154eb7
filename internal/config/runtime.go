package config

import (
	"fmt"

	"github.com/swap-hub/swap-hub/internal/behavior"
	"github.com/swap-hub/swap-hub/internal/dispatch"
)

// DispatcherRuntime 将 Dispatcher 配置与解析后的模块、策略合并，
// 方便启动流程直接取用，不必重复解析。
type DispatcherRuntime struct {
	Config DispatcherConfig
	Module behavior.Module
	Policy dispatch.Policy
}

// BuildDispatcherRuntime 解析配置引用的模块身份与访问策略。
// Validate 已经保证二者合法，这里仍返回错误以防跳过校验的调用路径。
func BuildDispatcherRuntime(cfg DispatcherConfig) (DispatcherRuntime, error) {
	m, ok := behavior.Resolve(cfg.Module)
	if !ok {
		return DispatcherRuntime{}, fmt.Errorf("dispatcher %s: module %s is not registered", cfg.Name, cfg.Module)
	}
	policy, err := dispatch.ParsePolicy(cfg.Policy)
	if err != nil {
		return DispatcherRuntime{}, fmt.Errorf("dispatcher %s: %w", cfg.Name, err)
	}
	return DispatcherRuntime{
		Config: cfg,
		Module: m,
		Policy: policy,
	}, nil
}
