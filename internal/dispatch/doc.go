// Package dispatch 实现稳定地址的分发器状态机。Dispatcher 独占持有
// 持久化槽位存储与访问策略，并引用一个当前活动的行为模块；Initialize /
// Upgrade / TransferAdmin 由 Dispatcher 自身处理，其余调用一律通过
// Forward 委托给活动模块执行。
//
// 调用语义是严格的 all-or-nothing：每次调用要么完整提交（内存与后端
// 一致更新），要么完全不留痕迹地失败；同一 Dispatcher 上的调用由内部
// 互斥锁全序串行化。调用者身份在系统边界解析一次后显式传入每个操作，
// 包内不读取任何环境态身份。
package dispatch
