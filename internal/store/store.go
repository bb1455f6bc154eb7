package store

import (
	"context"
	"fmt"
	"strings"
)

// Slots 是槽位索引到原始值的稀疏映射，既表示全量状态也表示一次提交的变更集。
type Slots map[uint64][]byte

// Clone 返回深拷贝，调用方可以安全地修改返回值。
func (s Slots) Clone() Slots {
	out := make(Slots, len(s))
	for idx, val := range s {
		buf := make([]byte, len(val))
		copy(buf, val)
		out[idx] = buf
	}
	return out
}

// Merge 将 changes 覆盖写入当前映射。
func (s Slots) Merge(changes Slots) {
	for idx, val := range changes {
		buf := make([]byte, len(val))
		copy(buf, val)
		s[idx] = buf
	}
}

// Backend 负责槽位状态的持久化。实现必须保证 Commit 的原子性：一次提交
// 要么全部可见要么完全不可见，Dispatcher 依赖这一点实现 all-or-nothing
// 的调用语义。
type Backend interface {
	// Load 返回指定 dispatcher 的全量已提交状态；不存在时返回空映射。
	Load(ctx context.Context, dispatcher string) (Slots, error)

	// Commit 原子地应用一次变更集。失败时底层状态保持不变。
	Commit(ctx context.Context, dispatcher string, changes Slots) error

	// Close 释放底层资源。
	Close() error
}

// 支持的 StorageDriver 取值。
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Open 根据配置的驱动名构建 Backend。path 对 file 驱动是目录，对 sqlite
// 驱动是数据库文件路径。
func Open(driver, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverFile, "":
		return newFileBackend(path)
	case DriverSQLite:
		return newSQLiteBackend(path)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}

func validateDispatcherName(name string) error {
	if name == "" {
		return fmt.Errorf("dispatcher name required")
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid dispatcher name: %s", name)
	}
	return nil
}
