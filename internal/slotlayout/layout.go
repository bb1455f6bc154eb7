package slotlayout

import (
	"errors"
	"fmt"
)

// Kind 是字段的类型标签，参与兼容性比较。
type Kind string

const (
	KindUint64 Kind = "uint64"
	KindBool   Kind = "bool"
	KindBytes  Kind = "bytes"
	KindString Kind = "string"
)

// ReservedBase 之后的槽位属于 Dispatcher 控制区，模块布局禁止进入。
const ReservedBase uint64 = 1 << 62

// WordSize 是单个槽位可容纳的最大字节数；bytes/string 字段可通过 Width
// 跨越多个槽位来放宽上限。
const WordSize = 32

// Field 声明一个持久化字段：从 Offset 开始、连续 Width 个槽位、类型为 Kind。
type Field struct {
	Name   string `json:"name"`
	Offset uint64 `json:"offset"`
	Width  uint64 `json:"width"`
	Kind   Kind   `json:"kind"`
}

// End 返回字段之后的第一个空闲槽位。
func (f Field) End() uint64 {
	return f.Offset + f.Width
}

// MaxBytes 返回该字段可存放的最大字节数。
func (f Field) MaxBytes() uint64 {
	return f.Width * WordSize
}

// Layout 是模块声明的字段序列，Fields 必须满足 Validate 的全部约束。
type Layout struct {
	Fields []Field `json:"fields"`
}

var knownKinds = map[Kind]struct{}{
	KindUint64: {},
	KindBool:   {},
	KindBytes:  {},
	KindString: {},
}

// Validate 检查布局自身的结构约束：字段名非空、Kind 已知、Width 至少为 1、
// Offset 严格递增且互不重叠、所有字段都位于保留区之下。
func (l Layout) Validate() error {
	next := uint64(0)
	seen := map[string]struct{}{}
	for i, f := range l.Fields {
		if f.Name == "" {
			return fmt.Errorf("field #%d: name required", i)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("field %s: duplicate name", f.Name)
		}
		seen[f.Name] = struct{}{}

		if _, ok := knownKinds[f.Kind]; !ok {
			return fmt.Errorf("field %s: unknown kind %q", f.Name, f.Kind)
		}
		if f.Width == 0 {
			return fmt.Errorf("field %s: width must be at least 1", f.Name)
		}
		if f.Offset < next {
			return fmt.Errorf("field %s: offset %d overlaps previous field", f.Name, f.Offset)
		}
		if f.End() > ReservedBase || f.End() < f.Offset {
			return fmt.Errorf("field %s: enters reserved slot range", f.Name)
		}
		next = f.End()
	}
	return nil
}

// Field 按起始 Offset 查找字段声明。
func (l Layout) Field(offset uint64) (Field, bool) {
	for _, f := range l.Fields {
		if f.Offset == offset {
			return f, true
		}
	}
	return Field{}, false
}

// End 返回布局之后的第一个空闲槽位；空布局返回 0。
func (l Layout) End() uint64 {
	if len(l.Fields) == 0 {
		return 0
	}
	return l.Fields[len(l.Fields)-1].End()
}

// ErrEmptyLayout 用于需要显式布局的调用方（例如模块注册校验）。
var ErrEmptyLayout = errors.New("layout has no fields")
