package stackeval

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/btcsuite/btcd/txscript"
)

// ResolveFunc 按名称解析变量值
type ResolveFunc func(name string) ([]byte, error)

// Compile 将可读脚本文本编译为脚本。记号以空白分隔：
//
//	OP_DUP / dup      操作码，OP_ 前缀可省略，不区分大小写
//	0x0102            十六进制数据推送
//	42 / -1           十进制整数推送
//	$name             推送变量的值（来源标记为变量）
//	"text"            推送字符串的 UTF-8 字节（来源标记为字符串字面量）
//
// 每个记号恰好生成一条操作。
func Compile(text string, resolve ResolveFunc) (*Script, error) {
	tokens, err := splitTokens(text)
	if err != nil {
		return nil, err
	}

	builder := txscript.NewScriptBuilder()
	sources := make([]Item, 0, len(tokens))
	for _, tok := range tokens {
		src, err := addToken(builder, tok, resolve)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	raw, err := builder.Script()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	script, err := ParseScript(raw)
	if err != nil {
		return nil, err
	}
	if len(script.Ops) != len(sources) {
		return nil, fmt.Errorf("%w: %d 个记号生成了 %d 条操作", ErrParse, len(sources), len(script.Ops))
	}
	for i := range script.Ops {
		script.Ops[i].Source = sources[i]
	}

	return script, nil
}

// addToken 把一个记号追加到脚本，返回推送值的来源
func addToken(builder *txscript.ScriptBuilder, tok string, resolve ResolveFunc) (Item, error) {
	switch {
	case strings.HasPrefix(tok, `"`):
		s, err := strconv.Unquote(tok)
		if err != nil {
			return Item{}, fmt.Errorf("%w: 无效的字符串字面量 %s", ErrParse, tok)
		}
		builder.AddData([]byte(s))
		return Item{Data: []byte(s), Kind: KindString}, nil

	case strings.HasPrefix(tok, "$"):
		name := tok[1:]
		if resolve == nil {
			return Item{}, fmt.Errorf("%w: 变量 %q", ErrNotFound, name)
		}
		value, err := resolve(name)
		if err != nil {
			return Item{}, err
		}
		builder.AddData(value)
		return Item{Data: cloneBytes(value), Kind: KindVariable, Var: name}, nil

	case strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X"):
		data, err := hex.DecodeString(tok[2:])
		if err != nil {
			return Item{}, fmt.Errorf("%w: 无效的十六进制数据 %s", ErrParse, tok)
		}
		builder.AddData(data)
		return Item{}, nil
	}

	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		builder.AddInt64(n)
		return Item{}, nil
	}

	name := strings.ToUpper(tok)
	if !strings.HasPrefix(name, "OP_") {
		name = "OP_" + name
	}
	opcode, ok := txscript.OpcodeByName[name]
	if !ok {
		return Item{}, fmt.Errorf("%w: 未知的记号 %q", ErrParse, tok)
	}
	builder.AddOp(opcode)
	return Item{}, nil
}

// splitTokens 按空白切分记号，双引号内的空白保留
func splitTokens(text string) ([]string, error) {
	var tokens []string
	rest := strings.TrimSpace(text)
	for rest != "" {
		if rest[0] == '"' {
			q, err := strconv.QuotedPrefix(rest)
			if err != nil {
				return nil, fmt.Errorf("%w: 未闭合的字符串字面量", ErrParse)
			}
			tokens = append(tokens, q)
			rest = strings.TrimLeftFunc(rest[len(q):], unicode.IsSpace)
			continue
		}

		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			end = len(rest)
		}
		tokens = append(tokens, rest[:end])
		rest = strings.TrimLeftFunc(rest[end:], unicode.IsSpace)
	}
	return tokens, nil
}
