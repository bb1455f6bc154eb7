package slotlayout

import "fmt"

// IncompatibilityError 指出新布局破坏了旧布局中的哪个字段，便于管理端定位。
type IncompatibilityError struct {
	Field  string
	Reason string
}

func (e *IncompatibilityError) Error() string {
	return fmt.Sprintf("layout field %s: %s", e.Field, e.Reason)
}

// Compatible 判定 next 是否是 prev 的 append-only 超集：prev 中的每个字段
// 必须以相同的 Offset/Width/Kind 出现在 next 中，next 的新增字段只能位于
// prev 末尾之后。空的 prev（首次安装）与任何 next 兼容。
//
// 返回 nil 表示兼容；否则返回 *IncompatibilityError 描述第一处破坏。
func Compatible(prev, next Layout) error {
	if len(prev.Fields) == 0 {
		return nil
	}
	if len(next.Fields) < len(prev.Fields) {
		missing := prev.Fields[len(next.Fields)]
		return &IncompatibilityError{Field: missing.Name, Reason: "removed from new layout"}
	}

	for i, old := range prev.Fields {
		got := next.Fields[i]
		if got.Offset != old.Offset {
			return &IncompatibilityError{
				Field:  old.Name,
				Reason: fmt.Sprintf("offset changed from %d to %d", old.Offset, got.Offset),
			}
		}
		if got.Width != old.Width {
			return &IncompatibilityError{
				Field:  old.Name,
				Reason: fmt.Sprintf("width changed from %d to %d", old.Width, got.Width),
			}
		}
		if got.Kind != old.Kind {
			return &IncompatibilityError{
				Field:  old.Name,
				Reason: fmt.Sprintf("kind changed from %s to %s", old.Kind, got.Kind),
			}
		}
	}

	end := prev.End()
	for _, added := range next.Fields[len(prev.Fields):] {
		if added.Offset < end {
			return &IncompatibilityError{
				Field:  added.Name,
				Reason: fmt.Sprintf("new field intrudes below old layout end %d", end),
			}
		}
	}
	return nil
}
