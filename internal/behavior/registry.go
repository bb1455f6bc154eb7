package behavior

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var globalRegistry = newRegistry()

type registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

func newRegistry() *registry {
	return &registry{modules: make(map[string]Module)}
}

// Register 将模块加入全局注册表；身份重复或布局非法会返回错误。
func Register(m Module) error {
	return globalRegistry.register(m)
}

// MustRegister 在注册失败时 panic，适合模块 init() 中调用。
func MustRegister(m Module) {
	if err := Register(m); err != nil {
		panic(err)
	}
}

// Resolve 按身份（key@version）返回模块。
func Resolve(identity string) (Module, bool) {
	return globalRegistry.resolve(identity)
}

// List 返回按身份排序的全部模块。
func List() []Module {
	return globalRegistry.list()
}

// Keys 返回所有已注册模块的身份，供调试或诊断使用。
func Keys() []string {
	items := List()
	result := make([]string, len(items))
	for i, m := range items {
		result[i] = m.Metadata().Identity()
	}
	return result
}

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

func (r *registry) register(m Module) error {
	if m == nil {
		return fmt.Errorf("module is required")
	}
	identity := normalizeIdentity(m.Metadata().Identity())
	if err := validateIdentity(identity); err != nil {
		return err
	}
	if err := m.Layout().Validate(); err != nil {
		return fmt.Errorf("module %s layout: %w", identity, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[identity]; exists {
		return fmt.Errorf("module %s already registered", identity)
	}
	r.modules[identity] = m
	return nil
}

func (r *registry) resolve(identity string) (Module, bool) {
	normalized := normalizeIdentity(identity)
	if normalized == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[normalized]
	return m, ok
}

func (r *registry) list() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.modules) == 0 {
		return nil
	}

	identities := make([]string, 0, len(r.modules))
	for identity := range r.modules {
		identities = append(identities, identity)
	}
	sort.Strings(identities)

	result := make([]Module, 0, len(identities))
	for _, identity := range identities {
		result = append(result, r.modules[identity])
	}
	return result
}
