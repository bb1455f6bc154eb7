// Package slotlayout 描述模块对持久化槽位的声明式布局，以及跨版本的
// 兼容性判定。布局是一组按 Offset 升序排列的字段，每个字段声明自己占用
// 的槽位区间与类型标签；Dispatcher 在 Upgrade 时依赖 Compatible 拒绝任何
// 破坏既有字段的新布局（仅允许 append-only 演进）。
//
// 槽位空间的高位区间（>= ReservedBase）预留给 Dispatcher 自身的控制字段，
// 模块布局不允许声明或触碰该区间。
package slotlayout
