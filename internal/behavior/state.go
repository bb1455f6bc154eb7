package behavior

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/swap-hub/swap-hub/internal/slotlayout"
	"github.com/swap-hub/swap-hub/internal/store"
)

// State 是一次调用期间模块看到的槽位视图：读取先查暂存层再查已提交状态，
// 写入只进入暂存层。Dispatcher 在调用成功后统一提交 Changes()，失败则整体
// 丢弃，从而保证 all-or-nothing 语义。视图受模块布局约束，未声明的槽位
// （包括保留区）既不可读也不可写。
//
// 字段值整体存放在字段起始槽位上，Width 只用来限定 bytes/string 的容量上限。
type State struct {
	layout   slotlayout.Layout
	base     store.Slots
	staged   store.Slots
	readonly bool
}

// NewState 构建可写视图。base 由调用方持有，State 不会修改它。
func NewState(layout slotlayout.Layout, base store.Slots) *State {
	return &State{
		layout: layout,
		base:   base,
		staged: store.Slots{},
	}
}

// NewReadState 构建只读视图，供升级授权等只需读状态的决策使用。
func NewReadState(layout slotlayout.Layout, base store.Slots) *State {
	st := NewState(layout, base)
	st.readonly = true
	return st
}

// Changes 返回本次调用产生的暂存写集。
func (s *State) Changes() store.Slots {
	return s.staged
}

// ErrReadOnly 表示在只读视图上尝试写入。
var ErrReadOnly = errors.New("state is read-only")

// Uint64 读取 uint64 字段；未写入过时返回 0。
func (s *State) Uint64(offset uint64) (uint64, error) {
	raw, err := s.read(offset, slotlayout.KindUint64)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("slot %d: malformed uint64 value (%d bytes)", offset, len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

// SetUint64 写入 uint64 字段。
func (s *State) SetUint64(offset uint64, value uint64) error {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	return s.write(offset, slotlayout.KindUint64, buf)
}

// Bool 读取 bool 字段；未写入过时返回 false。
func (s *State) Bool(offset uint64) (bool, error) {
	raw, err := s.read(offset, slotlayout.KindBool)
	if err != nil {
		return false, err
	}
	return len(raw) == 1 && raw[0] == 1, nil
}

// SetBool 写入 bool 字段。
func (s *State) SetBool(offset uint64, value bool) error {
	encoded := []byte{0}
	if value {
		encoded[0] = 1
	}
	return s.write(offset, slotlayout.KindBool, encoded)
}

// Bytes 读取 bytes 字段；未写入过时返回 nil。返回值是副本。
func (s *State) Bytes(offset uint64) ([]byte, error) {
	raw, err := s.read(offset, slotlayout.KindBytes)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// SetBytes 写入 bytes 字段，长度受字段 Width 限制。
func (s *State) SetBytes(offset uint64, value []byte) error {
	return s.write(offset, slotlayout.KindBytes, value)
}

// String 读取 string 字段；未写入过时返回空串。
func (s *State) String(offset uint64) (string, error) {
	raw, err := s.read(offset, slotlayout.KindString)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// SetString 写入 string 字段，长度受字段 Width 限制。
func (s *State) SetString(offset uint64, value string) error {
	return s.write(offset, slotlayout.KindString, []byte(value))
}

func (s *State) read(offset uint64, kind slotlayout.Kind) ([]byte, error) {
	if _, err := s.field(offset, kind); err != nil {
		return nil, err
	}
	if staged, ok := s.staged[offset]; ok {
		return staged, nil
	}
	return s.base[offset], nil
}

func (s *State) write(offset uint64, kind slotlayout.Kind, value []byte) error {
	if s.readonly {
		return ErrReadOnly
	}
	f, err := s.field(offset, kind)
	if err != nil {
		return err
	}
	if uint64(len(value)) > f.MaxBytes() {
		return fmt.Errorf("slot %d: value %d bytes exceeds field capacity %d", offset, len(value), f.MaxBytes())
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	s.staged[offset] = buf
	return nil
}

func (s *State) field(offset uint64, kind slotlayout.Kind) (slotlayout.Field, error) {
	f, ok := s.layout.Field(offset)
	if !ok {
		return slotlayout.Field{}, fmt.Errorf("slot %d not declared in module layout", offset)
	}
	if f.Kind != kind {
		return slotlayout.Field{}, fmt.Errorf("slot %d: field %s is %s, accessed as %s", offset, f.Name, f.Kind, kind)
	}
	return f, nil
}
