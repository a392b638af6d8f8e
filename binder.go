package stackeval

import (
	"fmt"
	"strings"
)

// Binder 把原始输入转换为执行上下文。除变量存储的引用外不保存任何状态。
type Binder struct {
	vars VariableStore
}

// NewBinder 创建 Binder，vars 可以为 nil（此时任何变量都无法解析）
func NewBinder(vars VariableStore) *Binder {
	return &Binder{vars: vars}
}

// ResolveVariable 按名称查询变量值，不存在时返回 ErrNotFound
func (b *Binder) ResolveVariable(name string) ([]byte, error) {
	if b.vars == nil {
		return nil, fmt.Errorf("%w: 变量 %q", ErrNotFound, name)
	}

	value, ok, err := b.vars.Get(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: 变量 %q", ErrNotFound, name)
	}
	return value, nil
}

// BindTransaction 反序列化交易，失败时返回 ErrDeserialization
func (b *Binder) BindTransaction(raw []byte) (*Transaction, error) {
	return DeserializeTransaction(raw)
}

// BindScript 解析原始脚本字节，失败时返回 ErrParse
func (b *Binder) BindScript(raw []byte) (*Script, error) {
	return ParseScript(raw)
}

// CompileScript 编译可读脚本文本，$name 通过变量存储解析
func (b *Binder) CompileScript(text string) (*Script, error) {
	return Compile(text, b.ResolveVariable)
}

// ResolveText 解析一段数据文本：$name 取变量的值，否则按十六进制解码
func (b *Binder) ResolveText(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "$") {
		return b.ResolveVariable(text[1:])
	}
	return DecodeHex(text)
}

// ContextRequest 构建执行上下文所需的文本输入
type ContextRequest struct {
	Script      string // 脚本：十六进制字节，或可读脚本文本
	Transaction string // 交易：十六进制字节或 $name，为空表示不验证
	InputIndex  int    // 被验证的输入索引
	InputAmount int64  // 被花费输出的金额（见证脚本签名需要）
}

// Context 根据文本输入构建执行上下文。所有解析错误都在绑定之前返回。
func (b *Binder) Context(req ContextRequest) (*ExecutionContext, error) {
	script, err := b.scriptFromText(req.Script)
	if err != nil {
		return nil, err
	}

	var tx *Transaction
	if strings.TrimSpace(req.Transaction) != "" {
		raw, err := b.ResolveText(req.Transaction)
		if err != nil {
			return nil, err
		}
		if tx, err = b.BindTransaction(raw); err != nil {
			return nil, err
		}
	}

	return NewExecutionContext(script, tx, req.InputIndex, req.InputAmount)
}

// scriptFromText 每个词都是十六进制字节时先按原始字节解析，解析失败或不是十六进制时按可读脚本编译。
// 例如 "1 2" 会编译为 OP_1 OP_2。
func (b *Binder) scriptFromText(text string) (*Script, error) {
	if !isHex(text) {
		return b.CompileScript(text)
	}

	raw, err := DecodeHex(text)
	if err != nil {
		return nil, err
	}
	script, rawErr := b.BindScript(raw)
	if rawErr == nil {
		return script, nil
	}
	if script, err := b.CompileScript(text); err == nil {
		return script, nil
	}
	return nil, rawErr
}
