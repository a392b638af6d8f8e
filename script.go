package stackeval

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/txscript"
)

// scriptVersion 目前只支持 0 版本脚本
const scriptVersion = 0

// Operation 脚本中的一条指令：数据推送操作或不带数据的操作码。解析后不可变。
type Operation struct {
	Index  int    // 在脚本中的位置（从 0 开始）
	Offset int    // 在原始脚本中的字节偏移
	Opcode byte   // 操作码
	Data   []byte // 推送的数据，非推送操作码为 nil
	Disasm string // 单行反汇编
	Source Item   // 推送值的来源（变量、字符串字面量），普通字节为零值
}

// IsPush 判断是否为数据推送操作：OP_0 到 OP_PUSHDATA4，以及 OP_1NEGATE、OP_1 到 OP_16
func (op Operation) IsPush() bool {
	return op.Opcode <= txscript.OP_16 && op.Opcode != txscript.OP_RESERVED
}

// String 返回操作的反汇编形式
func (op Operation) String() string {
	return op.Disasm
}

// clone 返回操作的深拷贝
func (op Operation) clone() Operation {
	op.Data = cloneBytes(op.Data)
	op.Source = op.Source.clone()
	return op
}

// Script 有序的操作序列及其原始字节
type Script struct {
	Raw []byte      // 原始脚本字节
	Ops []Operation // 按脚本顺序排列的操作
}

// ParseScript 将原始脚本字节解析为操作序列
func ParseScript(raw []byte) (*Script, error) {
	script := &Script{Raw: cloneBytes(raw)}

	tokenizer := txscript.MakeScriptTokenizer(scriptVersion, script.Raw)
	start := 0
	for tokenizer.Next() {
		end := int(tokenizer.ByteIndex())
		disasm, err := txscript.DisasmString(script.Raw[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: 偏移 %d 反汇编失败: %v", ErrParse, start, err)
		}
		script.Ops = append(script.Ops, Operation{
			Index:  len(script.Ops),
			Offset: start,
			Opcode: tokenizer.Opcode(),
			Data:   cloneBytes(tokenizer.Data()),
			Disasm: disasm,
		})
		start = end
	}
	if err := tokenizer.Err(); err != nil {
		return nil, fmt.Errorf("%w: 偏移 %d: %v", ErrParse, start, err)
	}

	return script, nil
}

// Len 返回操作数量
func (s *Script) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Ops)
}

// Disasm 返回整个脚本的单行反汇编
func (s *Script) Disasm() string {
	parts := make([]string, len(s.Ops))
	for i, op := range s.Ops {
		parts[i] = op.Disasm
	}
	return strings.Join(parts, " ")
}
