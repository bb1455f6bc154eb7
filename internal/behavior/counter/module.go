// Package counter 提供计数器模块的两个版本，演示 append-only 布局演进：
// v1 只有 x 一个槽位，v2 追加 y 并将 increment 的步长从 1 提升到 10。
package counter

import (
	"encoding/binary"
	"fmt"

	"github.com/swap-hub/swap-hub/internal/behavior"
	"github.com/swap-hub/swap-hub/internal/selector"
	"github.com/swap-hub/swap-hub/internal/slotlayout"
)

const (
	slotX = 0
	slotY = 1
)

// 对外公开的操作选择器，供调用方与测试复用。
var (
	SelSetX      = selector.FromSignature("setX(uint64)")
	SelGetX      = selector.FromSignature("getX()")
	SelIncrement = selector.FromSignature("increment()")
	SelSetY      = selector.FromSignature("setY(uint64)")
	SelGetY      = selector.FromSignature("getY()")
)

func init() {
	behavior.MustRegister(V1{})
	behavior.MustRegister(V2{})
}

// V1 是初始版本：布局 {x@0}，increment 步长 1。
type V1 struct{}

func (V1) Metadata() behavior.Metadata {
	return behavior.Metadata{
		Key:         "counter",
		Version:     "1",
		Description: "single counter slot, increment by 1",
	}
}

func (V1) Layout() slotlayout.Layout {
	return slotlayout.Layout{Fields: []slotlayout.Field{
		{Name: "x", Offset: slotX, Width: 1, Kind: slotlayout.KindUint64},
	}}
}

// Init 将 x 置 0；payload 非空时作为初始值解码。
func (V1) Init(st *behavior.State, payload []byte) ([]byte, error) {
	initial := uint64(0)
	if len(payload) > 0 {
		decoded, err := decodeUint64(payload)
		if err != nil {
			return nil, err
		}
		initial = decoded
	}
	return nil, st.SetUint64(slotX, initial)
}

func (V1) Invoke(sel selector.Selector, st *behavior.State, payload []byte) ([]byte, error) {
	switch sel {
	case SelSetX:
		value, err := decodeUint64(payload)
		if err != nil {
			return nil, err
		}
		return nil, st.SetUint64(slotX, value)
	case SelGetX:
		return readUint64(st, slotX)
	case SelIncrement:
		return nil, addUint64(st, slotX, 1)
	default:
		return nil, fmt.Errorf("%w: %s", behavior.ErrUnknownOperation, sel)
	}
}

// V2 追加 y 槽位，并将 increment 的步长改为 10；x 的存量数据保持原位。
type V2 struct{}

func (V2) Metadata() behavior.Metadata {
	return behavior.Metadata{
		Key:         "counter",
		Version:     "2",
		Description: "adds y slot, increment by 10",
	}
}

func (V2) Layout() slotlayout.Layout {
	return slotlayout.Layout{Fields: []slotlayout.Field{
		{Name: "x", Offset: slotX, Width: 1, Kind: slotlayout.KindUint64},
		{Name: "y", Offset: slotY, Width: 1, Kind: slotlayout.KindUint64},
	}}
}

func (V2) Init(st *behavior.State, payload []byte) ([]byte, error) {
	return V1{}.Init(st, payload)
}

func (V2) Invoke(sel selector.Selector, st *behavior.State, payload []byte) ([]byte, error) {
	switch sel {
	case SelSetX:
		value, err := decodeUint64(payload)
		if err != nil {
			return nil, err
		}
		return nil, st.SetUint64(slotX, value)
	case SelGetX:
		return readUint64(st, slotX)
	case SelIncrement:
		return nil, addUint64(st, slotX, 10)
	case SelSetY:
		value, err := decodeUint64(payload)
		if err != nil {
			return nil, err
		}
		return nil, st.SetUint64(slotY, value)
	case SelGetY:
		return readUint64(st, slotY)
	default:
		return nil, fmt.Errorf("%w: %s", behavior.ErrUnknownOperation, sel)
	}
}

// decodeUint64 解析 8 字节大端序负载。
func decodeUint64(payload []byte) (uint64, error) {
	if len(payload) != 8 {
		return 0, fmt.Errorf("expected 8-byte uint64 payload, got %d bytes", len(payload))
	}
	return binary.BigEndian.Uint64(payload), nil
}

// EncodeUint64 是调用方使用的负载编码帮助函数。
func EncodeUint64(value uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	return buf
}

func readUint64(st *behavior.State, slot uint64) ([]byte, error) {
	value, err := st.Uint64(slot)
	if err != nil {
		return nil, err
	}
	return EncodeUint64(value), nil
}

func addUint64(st *behavior.State, slot uint64, step uint64) error {
	value, err := st.Uint64(slot)
	if err != nil {
		return err
	}
	return st.SetUint64(slot, value+step)
}
