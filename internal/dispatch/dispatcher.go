package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/swap-hub/swap-hub/internal/behavior"
	"github.com/swap-hub/swap-hub/internal/selector"
	"github.com/swap-hub/swap-hub/internal/slotlayout"
	"github.com/swap-hub/swap-hub/internal/store"
)

// Dispatcher 的控制字段保存在保留槽区，模块布局永远触不到这里。
// 控制字段随普通变更一起提交，因此重启后整个状态机可以从存储恢复。
const (
	slotInitialized   = slotlayout.ReservedBase + 0
	slotActiveModule  = slotlayout.ReservedBase + 1
	slotAdministrator = slotlayout.ReservedBase + 2
)

// Options 描述构造一个 Dispatcher 所需的全部依赖。
type Options struct {
	Name          string
	Module        behavior.Module
	Administrator Identity
	Policy        Policy
	Backend       store.Backend
	Logger        *logrus.Logger
}

// Dispatcher 是调用方寻址的稳定前端：独占持有槽位状态与访问策略，
// 引用当前活动模块。所有方法按调用顺序全序串行执行。
type Dispatcher struct {
	mu sync.Mutex

	name    string
	guard   AccessGuard
	backend store.Backend
	logger  *logrus.Logger

	slots       store.Slots
	active      behavior.Module
	admin       Identity
	initialized bool
}

// New 构造（或从存储恢复）一个 Dispatcher。initialModule 为 nil 时构造
// 失败。存储中已有控制字段时以存储为准：活动模块按持久化身份重新解析，
// 解析不到说明部署缺少对应模块注册，直接报错而不是带着悬空引用启动。
func New(ctx context.Context, opts Options) (*Dispatcher, error) {
	if opts.Name == "" {
		return nil, errors.New("dispatcher name required")
	}
	if opts.Module == nil {
		return nil, errors.New("initial module required")
	}
	if opts.Administrator == "" {
		return nil, errors.New("administrator identity required")
	}
	if opts.Backend == nil {
		return nil, errors.New("store backend required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger required")
	}
	policy, err := ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}

	slots, err := opts.Backend.Load(ctx, opts.Name)
	if err != nil {
		return nil, fmt.Errorf("load dispatcher %s: %w", opts.Name, err)
	}

	d := &Dispatcher{
		name:    opts.Name,
		guard:   NewAccessGuard(policy),
		backend: opts.Backend,
		logger:  opts.Logger,
		slots:   slots,
		active:  opts.Module,
		admin:   opts.Administrator,
	}

	if stored, ok := slots[slotActiveModule]; ok {
		if err := d.restore(string(stored)); err != nil {
			return nil, err
		}
		return d, nil
	}

	// 全新构造：立即持久化控制字段，保证重启时管理员与活动模块不丢失。
	construct := store.Slots{
		slotActiveModule:  []byte(opts.Module.Metadata().Identity()),
		slotAdministrator: []byte(opts.Administrator),
	}
	if err := opts.Backend.Commit(ctx, opts.Name, construct); err != nil {
		return nil, fmt.Errorf("persist dispatcher %s construction: %w", opts.Name, err)
	}
	d.slots.Merge(construct)

	d.logger.WithFields(d.fields("construct", "")).
		WithField("module", d.active.Metadata().Identity()).
		Info("dispatcher constructed")
	return d, nil
}

// restore 用持久化的控制字段覆盖构造参数。
func (d *Dispatcher) restore(identity string) error {
	m, ok := behavior.Resolve(identity)
	if !ok {
		return fmt.Errorf("dispatcher %s: persisted module %s is not registered", d.name, identity)
	}
	d.active = m

	if admin, ok := d.slots[slotAdministrator]; ok && len(admin) > 0 {
		d.admin = Identity(admin)
	}
	if flag, ok := d.slots[slotInitialized]; ok && len(flag) == 1 && flag[0] == 1 {
		d.initialized = true
	}

	d.logger.WithFields(d.fields("restore", "")).
		WithField("module", identity).
		WithField("initialized", d.initialized).
		Info("dispatcher restored from store")
	return nil
}

// Initialize 恰好执行一次：委托活动模块的初始化入口，成功后连同
// initialized 标志一起原子提交。第二次调用返回 ErrAlreadyInitialized，
// 即使后来的模块恰好暴露同名初始化操作也不会被重新触发。
func (d *Dispatcher) Initialize(ctx context.Context, caller Identity, payload []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil, ErrAlreadyInitialized
	}
	if d.active == nil {
		return nil, ErrNoActiveModule
	}

	st := behavior.NewState(d.active.Layout(), d.slots)
	result, err := d.active.Init(st, payload)
	if err != nil {
		d.logFailure("initialize", caller, selector.Selector{}, err)
		return nil, err
	}

	changes := st.Changes()
	changes[slotInitialized] = []byte{1}
	if err := d.commit(ctx, changes); err != nil {
		return nil, err
	}
	d.initialized = true

	d.logger.WithFields(d.fields("initialize", string(d.guard.Classify(caller, d.admin)))).
		WithField("module", d.active.Metadata().Identity()).
		Info("dispatcher initialized")
	return result, nil
}

// Forward 将一次外部调用委托给活动模块：负载原样传入，结果或失败原样
// 返回；只有执行成功时模块写集才会提交。
func (d *Dispatcher) Forward(ctx context.Context, caller Identity, sel selector.Selector, payload []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, ErrNotInitialized
	}
	if d.active == nil {
		return nil, ErrNoActiveModule
	}
	if d.guard.Policy() == PolicySeparated && d.guard.Classify(caller, d.admin) == Administrator {
		d.logFailure("forward", caller, sel, ErrAdminForwardForbidden)
		return nil, ErrAdminForwardForbidden
	}

	st := behavior.NewState(d.active.Layout(), d.slots)
	result, err := d.active.Invoke(sel, st, payload)
	if err != nil {
		if errors.Is(err, behavior.ErrUnknownOperation) {
			err = fmt.Errorf("%w: %s", ErrUnknownOperation, sel)
		}
		d.logFailure("forward", caller, sel, err)
		return nil, err
	}

	if err := d.commit(ctx, st.Changes()); err != nil {
		return nil, err
	}

	d.logger.WithFields(d.fields("forward", string(d.guard.Classify(caller, d.admin)))).
		WithField("module", d.active.Metadata().Identity()).
		WithField("selector", sel.String()).
		Debug("operation forwarded")
	return result, nil
}

// Upgrade 原子替换活动模块：授权与布局兼容性任一检查失败时
// activeModule 保持不变。新布局必须是旧布局的 append-only 超集。
func (d *Dispatcher) Upgrade(ctx context.Context, caller Identity, next behavior.Module) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if next == nil {
		return errors.New("upgrade module required")
	}
	if d.active == nil {
		return ErrNoActiveModule
	}

	if err := d.authorizeUpgrade(caller); err != nil {
		d.logFailure("upgrade", caller, selector.Selector{}, err)
		return err
	}

	if err := slotlayout.Compatible(d.active.Layout(), next.Layout()); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrLayoutIncompatible, err)
		d.logFailure("upgrade", caller, selector.Selector{}, wrapped)
		return wrapped
	}

	identity := next.Metadata().Identity()
	if err := d.commit(ctx, store.Slots{slotActiveModule: []byte(identity)}); err != nil {
		return err
	}
	previous := d.active.Metadata().Identity()
	d.active = next

	d.logger.WithFields(d.fields("upgrade", string(d.guard.Classify(caller, d.admin)))).
		WithField("module", identity).
		WithField("previous_module", previous).
		Info("module upgraded")
	return nil
}

func (d *Dispatcher) authorizeUpgrade(caller Identity) error {
	switch d.guard.Policy() {
	case PolicyModuleAuthorized:
		authorizer, ok := d.active.(behavior.UpgradeAuthorizer)
		if !ok {
			// 活动模块没有实现授权入口：按策略定义视为升级能力缺失。
			return ErrUnauthorizedUpgrade
		}
		read := behavior.NewReadState(d.active.Layout(), d.slots)
		allowed, err := authorizer.AuthorizeUpgrade(string(caller), read)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnauthorizedUpgrade, err)
		}
		if !allowed {
			return ErrUnauthorizedUpgrade
		}
		return nil
	default:
		if d.guard.Classify(caller, d.admin) != Administrator {
			return ErrUnauthorizedUpgrade
		}
		return nil
	}
}

// TransferAdmin 将管理员身份移交给新令牌；两种策略下都只有现任管理员
// 可以触发。
func (d *Dispatcher) TransferAdmin(ctx context.Context, caller Identity, next Identity) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if next == "" {
		return errors.New("new administrator identity required")
	}
	if d.guard.Classify(caller, d.admin) != Administrator {
		d.logFailure("transfer_admin", caller, selector.Selector{}, ErrUnauthorizedTransfer)
		return ErrUnauthorizedTransfer
	}

	if err := d.commit(ctx, store.Slots{slotAdministrator: []byte(next)}); err != nil {
		return err
	}
	d.admin = next

	d.logger.WithFields(d.fields("transfer_admin", string(Administrator))).
		Info("administrator transferred")
	return nil
}

// Status 是诊断端看到的 Dispatcher 快照。
type Status struct {
	Name         string            `json:"name"`
	Policy       string            `json:"policy"`
	Initialized  bool              `json:"initialized"`
	ActiveModule string            `json:"active_module"`
	Layout       slotlayout.Layout `json:"layout"`
	SlotCount    int               `json:"slot_count"`
}

// Status 返回当前状态快照，不暴露管理员令牌。
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Status{
		Name:         d.name,
		Policy:       string(d.guard.Policy()),
		Initialized:  d.initialized,
		ActiveModule: d.active.Metadata().Identity(),
		Layout:       d.active.Layout(),
		SlotCount:    len(d.slots),
	}
}

// Name 返回构造时的稳定名称。
func (d *Dispatcher) Name() string {
	return d.name
}

// commit 先落后端再更新内存，保证失败时内存状态与存储一致。
func (d *Dispatcher) commit(ctx context.Context, changes store.Slots) error {
	if len(changes) == 0 {
		return nil
	}
	if err := d.backend.Commit(ctx, d.name, changes); err != nil {
		return fmt.Errorf("commit dispatcher %s state: %w", d.name, err)
	}
	d.slots.Merge(changes)
	return nil
}

func (d *Dispatcher) fields(action, callerClass string) logrus.Fields {
	fields := logrus.Fields{
		"action":     action,
		"dispatcher": d.name,
		"policy":     string(d.guard.Policy()),
	}
	if callerClass != "" {
		fields["caller_class"] = callerClass
	}
	return fields
}

func (d *Dispatcher) logFailure(action string, caller Identity, sel selector.Selector, err error) {
	fields := d.fields(action, string(d.guard.Classify(caller, d.admin)))
	fields["error"] = Code(err)
	if !sel.IsZero() {
		fields["selector"] = sel.String()
	}
	d.logger.WithFields(fields).Warn(err.Error())
}
