package dispatch

import "errors"

// 调用失败的完整分类。所有错误同步返回给直接调用方，Dispatcher 不做
// 任何重试或部分恢复。
var (
	// ErrNotInitialized：Initialize 提交之前尝试 Forward。
	ErrNotInitialized = errors.New("dispatcher not initialized")

	// ErrAlreadyInitialized：Initialize 被第二次调用。
	ErrAlreadyInitialized = errors.New("dispatcher already initialized")

	// ErrNoActiveModule：Forward 时没有活动模块可委托。
	ErrNoActiveModule = errors.New("no active module")

	// ErrUnauthorizedUpgrade：调用者未通过当前升级授权策略。
	ErrUnauthorizedUpgrade = errors.New("unauthorized upgrade")

	// ErrLayoutIncompatible：新模块布局不是旧布局的 append-only 超集。
	ErrLayoutIncompatible = errors.New("layout incompatible")

	// ErrAdminForwardForbidden：separated 策略下管理员身份触碰 Forward。
	ErrAdminForwardForbidden = errors.New("administrator may not invoke forwarded operations")

	// ErrUnknownOperation：选择器在活动模块中没有匹配操作。
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnauthorizedTransfer：非管理员尝试移交管理员身份。
	ErrUnauthorizedTransfer = errors.New("unauthorized administrator transfer")
)

// Code 返回错误对应的机器可读码（用于 HTTP 响应与日志字段）；不属于
// 本分类的错误返回 internal_error。
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, ErrNoActiveModule):
		return "no_active_module"
	case errors.Is(err, ErrUnauthorizedUpgrade):
		return "unauthorized_upgrade"
	case errors.Is(err, ErrLayoutIncompatible):
		return "layout_incompatible"
	case errors.Is(err, ErrAdminForwardForbidden):
		return "admin_forward_forbidden"
	case errors.Is(err, ErrUnknownOperation):
		return "unknown_operation"
	case errors.Is(err, ErrUnauthorizedTransfer):
		return "unauthorized_transfer"
	default:
		return "internal_error"
	}
}
