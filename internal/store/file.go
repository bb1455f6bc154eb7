package store

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

const snapshotFileName = "slots.json"

// newFileBackend 以 basePath 为根目录构建快照文件后端，整个进程复用一份实例。
func newFileBackend(basePath string) (Backend, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	return &fileBackend{
		basePath: abs,
		locks:    make(map[string]*entryLock),
	}, nil
}

// fileBackend 每个 dispatcher 一份快照文件，通过 entryLock 避免同名并发提交。
type fileBackend struct {
	basePath string

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

// snapshot 是落盘的 JSON 结构：槽位索引十进制、值十六进制，保证可读可诊断。
type snapshot struct {
	Slots map[string]string `json:"slots"`
}

func (b *fileBackend) Load(ctx context.Context, dispatcher string) (Slots, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path, err := b.snapshotPath(dispatcher)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Slots{}, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	slots := make(Slots, len(snap.Slots))
	for key, val := range snap.Slots {
		idx, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot slot %q: %w", key, err)
		}
		value, err := hex.DecodeString(val)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot value for slot %s: %w", key, err)
		}
		slots[idx] = value
	}
	return slots, nil
}

func (b *fileBackend) Commit(ctx context.Context, dispatcher string, changes Slots) error {
	if len(changes) == 0 {
		return nil
	}

	unlock := b.lockEntry(dispatcher)
	defer unlock()

	current, err := b.Load(ctx, dispatcher)
	if err != nil {
		return err
	}
	current.Merge(changes)

	snap := snapshot{Slots: make(map[string]string, len(current))}
	for idx, val := range current {
		snap.Slots[strconv.FormatUint(idx, 10)] = hex.EncodeToString(val)
	}

	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	path, err := b.snapshotPath(dispatcher)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	// 临时文件 + rename 保证提交原子：崩溃时旧快照完整保留。
	tempFile, err := os.CreateTemp(filepath.Dir(path), ".slots-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, writeErr := tempFile.Write(encoded)
	closeErr := tempFile.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tempName)
		return writeErr
	}

	if err := os.Rename(tempName, path); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

func (b *fileBackend) Close() error {
	return nil
}

func (b *fileBackend) lockEntry(dispatcher string) func() {
	b.mu.Lock()
	lock := b.locks[dispatcher]
	if lock == nil {
		lock = &entryLock{}
		b.locks[dispatcher] = lock
	}
	lock.refs++
	b.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		b.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(b.locks, dispatcher)
		}
		b.mu.Unlock()
	}
}

func (b *fileBackend) snapshotPath(dispatcher string) (string, error) {
	if err := validateDispatcherName(dispatcher); err != nil {
		return "", err
	}
	return filepath.Join(b.basePath, dispatcher, snapshotFileName), nil
}
