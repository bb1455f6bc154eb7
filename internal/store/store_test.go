package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

// runBackendContract 覆盖两种驱动共享的行为契约。
func runBackendContract(t *testing.T, open func(t *testing.T) Backend) {
	t.Helper()

	t.Run("LoadMissingReturnsEmpty", func(t *testing.T) {
		backend := open(t)
		slots, err := backend.Load(context.Background(), "fresh")
		if err != nil {
			t.Fatalf("load error: %v", err)
		}
		if len(slots) != 0 {
			t.Fatalf("新 dispatcher 应返回空状态, got %d", len(slots))
		}
	})

	t.Run("CommitThenLoad", func(t *testing.T) {
		backend := open(t)
		changes := Slots{0: []byte{0x01}, 7: []byte("hello")}
		if err := backend.Commit(context.Background(), "alpha", changes); err != nil {
			t.Fatalf("commit error: %v", err)
		}

		slots, err := backend.Load(context.Background(), "alpha")
		if err != nil {
			t.Fatalf("load error: %v", err)
		}
		if !bytes.Equal(slots[0], []byte{0x01}) || !bytes.Equal(slots[7], []byte("hello")) {
			t.Fatalf("读回的槽位不一致: %v", slots)
		}
	})

	t.Run("CommitOverwrites", func(t *testing.T) {
		backend := open(t)
		ctx := context.Background()
		if err := backend.Commit(ctx, "alpha", Slots{3: []byte("old")}); err != nil {
			t.Fatalf("commit error: %v", err)
		}
		if err := backend.Commit(ctx, "alpha", Slots{3: []byte("new"), 4: []byte("add")}); err != nil {
			t.Fatalf("commit error: %v", err)
		}
		slots, err := backend.Load(ctx, "alpha")
		if err != nil {
			t.Fatalf("load error: %v", err)
		}
		if string(slots[3]) != "new" || string(slots[4]) != "add" {
			t.Fatalf("覆盖提交结果异常: %v", slots)
		}
	})

	t.Run("DispatchersAreIsolated", func(t *testing.T) {
		backend := open(t)
		ctx := context.Background()
		if err := backend.Commit(ctx, "alpha", Slots{1: []byte("a")}); err != nil {
			t.Fatalf("commit error: %v", err)
		}
		if err := backend.Commit(ctx, "beta", Slots{1: []byte("b")}); err != nil {
			t.Fatalf("commit error: %v", err)
		}
		slots, err := backend.Load(ctx, "beta")
		if err != nil {
			t.Fatalf("load error: %v", err)
		}
		if string(slots[1]) != "b" || len(slots) != 1 {
			t.Fatalf("dispatcher 之间状态未隔离: %v", slots)
		}
	})

	t.Run("EmptyCommitIsNoop", func(t *testing.T) {
		backend := open(t)
		if err := backend.Commit(context.Background(), "alpha", Slots{}); err != nil {
			t.Fatalf("空提交不应报错: %v", err)
		}
	})

	t.Run("ReservedRangeIndexes", func(t *testing.T) {
		backend := open(t)
		ctx := context.Background()
		high := uint64(1) << 62
		if err := backend.Commit(ctx, "alpha", Slots{high: []byte("ctrl")}); err != nil {
			t.Fatalf("高位槽提交失败: %v", err)
		}
		slots, err := backend.Load(ctx, "alpha")
		if err != nil {
			t.Fatalf("load error: %v", err)
		}
		if string(slots[high]) != "ctrl" {
			t.Fatalf("高位槽读回失败: %v", slots)
		}
	})

	t.Run("RejectsBadDispatcherName", func(t *testing.T) {
		backend := open(t)
		ctx := context.Background()
		for _, name := range []string{"", "a/b", "..", `a\b`} {
			if err := backend.Commit(ctx, name, Slots{0: []byte("x")}); err == nil {
				t.Fatalf("名称 %q 应被拒绝", name)
			}
		}
	})
}

func TestFileBackendContract(t *testing.T) {
	runBackendContract(t, func(t *testing.T) Backend {
		backend, err := Open(DriverFile, t.TempDir())
		if err != nil {
			t.Fatalf("open file backend: %v", err)
		}
		t.Cleanup(func() { backend.Close() })
		return backend
	})
}

func TestSQLiteBackendContract(t *testing.T) {
	runBackendContract(t, func(t *testing.T) Backend {
		backend, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "slots.db"))
		if err != nil {
			t.Fatalf("open sqlite backend: %v", err)
		}
		t.Cleanup(func() { backend.Close() })
		return backend
	})
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("etcd", t.TempDir()); err == nil {
		t.Fatal("未知驱动应报错")
	}
}

func TestOpenDefaultsToFileDriver(t *testing.T) {
	backend, err := Open("", t.TempDir())
	if err != nil {
		t.Fatalf("空驱动应回退 file: %v", err)
	}
	defer backend.Close()
	if _, ok := backend.(*fileBackend); !ok {
		t.Fatalf("期望 fileBackend, got %T", backend)
	}
}

func TestSlotsCloneIsDeep(t *testing.T) {
	original := Slots{1: []byte{0xaa}}
	clone := original.Clone()
	clone[1][0] = 0xbb
	if original[1][0] != 0xaa {
		t.Fatal("Clone 应返回深拷贝")
	}
}
