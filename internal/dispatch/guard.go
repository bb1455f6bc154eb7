package dispatch

import (
	"fmt"
	"strings"
)

// Identity 是调用者的不透明身份令牌，由外层接口在系统边界解析一次后
// 显式传入每个操作。
type Identity string

// Classification 是 AccessGuard 的判定结果。
type Classification string

const (
	Administrator  Classification = "administrator"
	OrdinaryCaller Classification = "ordinary"
)

// Policy 决定 Forward 与 Upgrade 的权限分离方式，按 Dispatcher 实例在
// 构造时选定。
type Policy string

const (
	// PolicySeparated：管理员与普通调用者彻底分离——管理员不得 Forward，
	// 只有管理员可以 Upgrade。避免管理身份误触与维护操作同名的业务操作。
	PolicySeparated Policy = "separated"

	// PolicyModuleAuthorized：Forward 不区分身份；升级权限由当前活动模块
	// 的 AuthorizeUpgrade 决定，随 Upgrade 原子地移交给新模块。
	PolicyModuleAuthorized Policy = "module-authorized"
)

// ParsePolicy 解析配置中的策略名。
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(raw))) {
	case PolicySeparated, "":
		return PolicySeparated, nil
	case PolicyModuleAuthorized:
		return PolicyModuleAuthorized, nil
	default:
		return "", fmt.Errorf("unsupported access policy: %s", raw)
	}
}

// AccessGuard 按策略对调用者做二元判定：管理员或普通调用者。
type AccessGuard struct {
	policy Policy
}

// NewAccessGuard 构建给定策略的判定器。
func NewAccessGuard(policy Policy) AccessGuard {
	return AccessGuard{policy: policy}
}

// Policy 返回构造时选定的策略。
func (g AccessGuard) Policy() Policy {
	return g.policy
}

// Classify 将调用者与当前管理员身份比较后归类。
func (g AccessGuard) Classify(caller, administrator Identity) Classification {
	if caller != "" && caller == administrator {
		return Administrator
	}
	return OrdinaryCaller
}
