package behavior

import (
	"errors"
	"fmt"
	"strings"

	"github.com/swap-hub/swap-hub/internal/selector"
	"github.com/swap-hub/swap-hub/internal/slotlayout"
)

// Metadata 记录一个模块版本的静态信息，供配置校验和诊断端使用。
type Metadata struct {
	Key         string
	Version     string
	Description string
}

// Identity 返回模块的不透明身份（key@version），Dispatcher 只以此引用模块。
func (m Metadata) Identity() string {
	return m.Key + "@" + m.Version
}

// Module 是可替换的行为单元。实现必须无状态且不可变：所有持久化数据
// 只能通过传入的 State 读写，且不得跨调用保留 State 中读到的值。
type Module interface {
	// Metadata 返回模块的身份与描述信息。
	Metadata() Metadata

	// Layout 声明模块期望的持久化槽位布局。
	Layout() slotlayout.Layout

	// Init 是一次性的初始化入口，由 Dispatcher.Initialize 驱动。
	Init(st *State, payload []byte) ([]byte, error)

	// Invoke 执行选择器对应的操作；没有匹配的操作时必须返回
	// ErrUnknownOperation（可包装）。
	Invoke(sel selector.Selector, st *State, payload []byte) ([]byte, error)
}

// UpgradeAuthorizer 由希望自主控制升级权限的模块实现（module-authorized
// 策略下 Upgrade 会咨询当前活动模块）。决策只能依据 caller 与已提交状态，
// 必须是确定性的。
type UpgradeAuthorizer interface {
	AuthorizeUpgrade(caller string, st *State) (bool, error)
}

// ErrUnknownOperation 表示选择器在模块中没有匹配的操作。
var ErrUnknownOperation = errors.New("unknown operation")

// Failure 是模块主动产生的业务失败：Payload 必须逐字节透传回最初的调用方，
// Dispatcher 不会提交本次调用的任何状态变更。
type Failure struct {
	Payload []byte
}

func (f *Failure) Error() string {
	return fmt.Sprintf("module failure: %s", string(f.Payload))
}

// Fail 构造一个携带失败负载的 Failure。
func Fail(payload []byte) error {
	return &Failure{Payload: payload}
}

// AsFailure 提取错误链中的 Failure。
func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

func validateIdentity(identity string) error {
	if strings.TrimSpace(identity) == "" {
		return errors.New("module identity required")
	}
	key, version, ok := strings.Cut(identity, "@")
	if !ok || key == "" || version == "" {
		return fmt.Errorf("module identity must be key@version: %s", identity)
	}
	return nil
}
