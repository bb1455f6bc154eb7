// Package behavior 聚合可热替换的行为模块，并提供统一的注册入口。
//
// 模块作者需要：
//  1. 在 internal/behavior/<module-key>/ 目录下实现 Module 接口；
//  2. 通过本包暴露的 Register 函数在 init() 中注册各个版本；
//  3. 保证布局演进遵循 append-only 规则（新版本只能在旧布局末尾追加字段）。
//
// 模块本身不持有任何状态：每次调用拿到的 State 是 Dispatcher 槽位存储的
// 暂存视图，调用成功后统一提交，失败则整体丢弃。同一个模块实例可以被
// 任意多个 Dispatcher 同时引用。
package behavior
