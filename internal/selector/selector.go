// Package selector 定义转发调用使用的定宽操作标识符。标识符由操作签名
// （形如 setX(uint64)）经 SHA-256 截断为 4 字节得到，调用方与模块双方
// 只要约定同一签名即可在不共享代码的情况下得到一致的标识符。
package selector

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Size 是选择器的固定字节宽度。
const Size = 4

// Selector 是一次外部调用携带的操作标识符。
type Selector [Size]byte

// FromSignature 依据操作签名推导选择器。签名在推导前会去除空白，
// 因此 "getX()" 与 " getX() " 等价。
func FromSignature(signature string) Selector {
	normalized := strings.ReplaceAll(strings.TrimSpace(signature), " ", "")
	sum := sha256.Sum256([]byte(normalized))

	var sel Selector
	copy(sel[:], sum[:Size])
	return sel
}

// Parse 解析 0x 前缀的 8 位十六进制文本形式。
func Parse(text string) (Selector, error) {
	var sel Selector
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		return sel, fmt.Errorf("selector must start with 0x: %q", text)
	}
	raw, err := hex.DecodeString(trimmed[2:])
	if err != nil {
		return sel, fmt.Errorf("invalid selector %q: %w", text, err)
	}
	if len(raw) != Size {
		return sel, fmt.Errorf("selector must be %d bytes, got %d", Size, len(raw))
	}
	copy(sel[:], raw)
	return sel, nil
}

// String 输出 0x 前缀的十六进制形式，用于日志与 URL。
func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// IsZero 报告选择器是否为空值。
func (s Selector) IsZero() bool {
	return s == Selector{}
}
