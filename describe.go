package stackeval

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// maxScriptNumLen 按脚本数字解释的最大字节数
const maxScriptNumLen = 4

// Describe 返回堆栈项的可读表示：
// 变量为 $name，字符串为带引号的文本，短数据附带脚本数字，公钥和签名给出提示，其余为十六进制。
func Describe(it Item) string {
	switch it.Kind {
	case KindVariable:
		return "$" + it.Var
	case KindString:
		return strconv.Quote(string(it.Data))
	}

	data := it.Data
	switch {
	case len(data) == 0:
		return "<empty>"
	case len(data) <= maxScriptNumLen:
		return fmt.Sprintf("0x%x (%d)", data, scriptNumValue(data))
	case isPubKey(data):
		return "pubkey:" + hex.EncodeToString(data)
	case isSignature(data):
		return fmt.Sprintf("sig:%x (hashtype 0x%02x)", data, data[len(data)-1])
	}
	return "0x" + hex.EncodeToString(data)
}

// scriptNumValue 按脚本数字规则（小端序，最高位为符号位）解码，调用方保证长度不超过 4
func scriptNumValue(v []byte) int64 {
	var result int64
	for i, b := range v {
		result |= int64(b) << uint8(8*i)
	}

	// 最高字节的符号位表示负数
	if v[len(v)-1]&0x80 != 0 {
		result &= ^(int64(0x80) << uint8(8*(len(v)-1)))
		return -result
	}
	return result
}

// isPubKey 压缩或非压缩的 secp256k1 公钥
func isPubKey(data []byte) bool {
	if len(data) != secp.PubKeyBytesLenCompressed && len(data) != secp.PubKeyBytesLenUncompressed {
		return false
	}
	_, err := btcec.ParsePubKey(data)
	return err == nil
}

// isSignature DER 编码签名加一个字节的签名哈希类型
func isSignature(data []byte) bool {
	if len(data) < 9 || len(data) > 73 {
		return false
	}
	_, err := ecdsa.ParseDERSignature(data[:len(data)-1])
	return err == nil
}

// effectLog 描述一条操作对主堆栈的影响
func effectLog(op Operation, depthBefore int, m *Machine) string {
	after := m.Main.Size()
	if op.Source.Kind != KindRaw && after == depthBefore+1 {
		return fmt.Sprintf("push %s", Describe(op.Source))
	}
	if op.IsPush() && after == depthBefore+1 {
		top, _ := m.Main.Peek(0)
		return fmt.Sprintf("push %s", Describe(top))
	}

	text := fmt.Sprintf("%s: depth %d -> %d", op, depthBefore, after)
	if after > 0 {
		top, _ := m.Main.Peek(0)
		text += ", top " + Describe(top)
	}
	if n := m.Alt.Size(); n > 0 {
		text += fmt.Sprintf(", alt depth %d", n)
	}
	return text
}
