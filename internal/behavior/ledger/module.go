// Package ledger 提供一个携带所有者概念的余额账本模块，演示 module-authorized
// 升级策略：AuthorizeUpgrade 依据存储中的 owner 槽位判定调用者是否有权升级。
// v2 在 v1 布局末尾追加 withdrawn 统计槽位。
package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/swap-hub/swap-hub/internal/behavior"
	"github.com/swap-hub/swap-hub/internal/selector"
	"github.com/swap-hub/swap-hub/internal/slotlayout"
)

const (
	slotOwner     = 0
	slotBalance   = 2
	slotWithdrawn = 3
)

var (
	SelDeposit   = selector.FromSignature("deposit(uint64)")
	SelWithdraw  = selector.FromSignature("withdraw(uint64)")
	SelBalanceOf = selector.FromSignature("balanceOf()")
	SelWithdrawn = selector.FromSignature("withdrawn()")
)

// FailInsufficientFunds 是透传给调用方的业务失败负载。
var FailInsufficientFunds = []byte("insufficient_funds")

func init() {
	behavior.MustRegister(V1{})
	behavior.MustRegister(V2{})
}

// V1 布局：owner（string，2 槽）+ balance（uint64）。
type V1 struct{}

func (V1) Metadata() behavior.Metadata {
	return behavior.Metadata{
		Key:         "ledger",
		Version:     "1",
		Description: "owner-gated balance ledger",
	}
}

func (V1) Layout() slotlayout.Layout {
	return slotlayout.Layout{Fields: []slotlayout.Field{
		{Name: "owner", Offset: slotOwner, Width: 2, Kind: slotlayout.KindString},
		{Name: "balance", Offset: slotBalance, Width: 1, Kind: slotlayout.KindUint64},
	}}
}

// Init 将 payload 记录为 owner 身份。owner 为空视为初始化参数缺失。
func (V1) Init(st *behavior.State, payload []byte) ([]byte, error) {
	owner := string(payload)
	if owner == "" {
		return nil, fmt.Errorf("ledger init requires an owner payload")
	}
	if err := st.SetString(slotOwner, owner); err != nil {
		return nil, err
	}
	return nil, st.SetUint64(slotBalance, 0)
}

func (V1) Invoke(sel selector.Selector, st *behavior.State, payload []byte) ([]byte, error) {
	return invoke(sel, st, payload, false)
}

// AuthorizeUpgrade 只允许 owner 槽位中记录的身份触发升级。
func (V1) AuthorizeUpgrade(caller string, st *behavior.State) (bool, error) {
	return authorizeByOwner(caller, st)
}

// V2 追加 withdrawn 槽位，统计累计提取额。
type V2 struct{}

func (V2) Metadata() behavior.Metadata {
	return behavior.Metadata{
		Key:         "ledger",
		Version:     "2",
		Description: "balance ledger with withdrawal accounting",
	}
}

func (V2) Layout() slotlayout.Layout {
	v1 := V1{}.Layout()
	v1.Fields = append(v1.Fields, slotlayout.Field{
		Name: "withdrawn", Offset: slotWithdrawn, Width: 1, Kind: slotlayout.KindUint64,
	})
	return v1
}

func (V2) Init(st *behavior.State, payload []byte) ([]byte, error) {
	return V1{}.Init(st, payload)
}

func (V2) Invoke(sel selector.Selector, st *behavior.State, payload []byte) ([]byte, error) {
	return invoke(sel, st, payload, true)
}

func (V2) AuthorizeUpgrade(caller string, st *behavior.State) (bool, error) {
	return authorizeByOwner(caller, st)
}

func authorizeByOwner(caller string, st *behavior.State) (bool, error) {
	owner, err := st.String(slotOwner)
	if err != nil {
		return false, err
	}
	return owner != "" && caller == owner, nil
}

func invoke(sel selector.Selector, st *behavior.State, payload []byte, trackWithdrawn bool) ([]byte, error) {
	switch sel {
	case SelDeposit:
		amount, err := decodeUint64(payload)
		if err != nil {
			return nil, err
		}
		balance, err := st.Uint64(slotBalance)
		if err != nil {
			return nil, err
		}
		return nil, st.SetUint64(slotBalance, balance+amount)

	case SelWithdraw:
		amount, err := decodeUint64(payload)
		if err != nil {
			return nil, err
		}
		balance, err := st.Uint64(slotBalance)
		if err != nil {
			return nil, err
		}
		if amount > balance {
			return nil, behavior.Fail(FailInsufficientFunds)
		}
		if err := st.SetUint64(slotBalance, balance-amount); err != nil {
			return nil, err
		}
		if trackWithdrawn {
			withdrawn, err := st.Uint64(slotWithdrawn)
			if err != nil {
				return nil, err
			}
			if err := st.SetUint64(slotWithdrawn, withdrawn+amount); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case SelBalanceOf:
		balance, err := st.Uint64(slotBalance)
		if err != nil {
			return nil, err
		}
		return EncodeUint64(balance), nil

	case SelWithdrawn:
		if !trackWithdrawn {
			return nil, fmt.Errorf("%w: %s", behavior.ErrUnknownOperation, sel)
		}
		withdrawn, err := st.Uint64(slotWithdrawn)
		if err != nil {
			return nil, err
		}
		return EncodeUint64(withdrawn), nil

	default:
		return nil, fmt.Errorf("%w: %s", behavior.ErrUnknownOperation, sel)
	}
}

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
