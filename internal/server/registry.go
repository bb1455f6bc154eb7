package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/swap-hub/swap-hub/internal/config"
	"github.com/swap-hub/swap-hub/internal/dispatch"
	"github.com/swap-hub/swap-hub/internal/store"
)

// Registry 提供名称到 Dispatcher 的查询能力，所有 Dispatcher 共享同一个
// 存储后端。调用方应在启动阶段创建一次并复用。
type Registry struct {
	byName  map[string]*dispatch.Dispatcher
	ordered []*dispatch.Dispatcher
}

// NewRegistry 根据配置构建全部 Dispatcher 实例。任一实例构造失败会使
// 启动整体失败，避免带着部分可用的路由表对外服务。
func NewRegistry(ctx context.Context, cfg *config.Config, backend store.Backend, logger *logrus.Logger) (*Registry, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if backend == nil {
		return nil, errors.New("store backend is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	registry := &Registry{
		byName: make(map[string]*dispatch.Dispatcher, len(cfg.Dispatchers)),
	}

	for _, dc := range cfg.Dispatchers {
		if _, exists := registry.byName[dc.Name]; exists {
			return nil, fmt.Errorf("duplicate dispatcher name %s", dc.Name)
		}

		rt, err := config.BuildDispatcherRuntime(dc)
		if err != nil {
			return nil, err
		}

		d, err := dispatch.New(ctx, dispatch.Options{
			Name:          dc.Name,
			Module:        rt.Module,
			Administrator: dispatch.Identity(dc.AdminToken),
			Policy:        rt.Policy,
			Backend:       backend,
			Logger:        logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build dispatcher %s: %w", dc.Name, err)
		}

		registry.byName[dc.Name] = d
		registry.ordered = append(registry.ordered, d)
	}

	return registry, nil
}

// Lookup 根据路径参数中的名称查找 Dispatcher。
func (r *Registry) Lookup(name string) (*dispatch.Dispatcher, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.byName[name]
	return d, ok
}

// List 返回所有 Dispatcher 的状态快照（按配置定义的顺序），用于诊断输出。
func (r *Registry) List() []dispatch.Status {
	if r == nil || len(r.ordered) == 0 {
		return nil
	}
	result := make([]dispatch.Status, len(r.ordered))
	for i, d := range r.ordered {
		result[i] = d.Status()
	}
	return result
}
