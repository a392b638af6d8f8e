package stackeval

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Transaction 已解析的交易，只在验证路径中为签名类操作码提供上下文
type Transaction struct {
	msg *wire.MsgTx    // 解析后的交易
	id  chainhash.Hash // 交易ID
	raw []byte         // 原始字节
}

// DeserializeTransaction 从原始字节反序列化交易
func DeserializeTransaction(raw []byte) (*Transaction, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: 交易字节为空", ErrDeserialization)
	}

	tx, err := btcutil.NewTxFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}

	return &Transaction{
		msg: tx.MsgTx(),
		id:  *tx.Hash(),
		raw: cloneBytes(raw),
	}, nil
}

// NewTransaction 用已构建的交易创建 Transaction
func NewTransaction(msg *wire.MsgTx) (*Transaction, error) {
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("序列化交易失败: %w", err)
	}
	return DeserializeTransaction(buf.Bytes())
}

// ID 返回交易ID（显示字节序的十六进制）
func (tx *Transaction) ID() string {
	return tx.id.String()
}

// Hash 返回交易哈希
func (tx *Transaction) Hash() chainhash.Hash {
	return tx.id
}

// NumInputs 返回输入数量
func (tx *Transaction) NumInputs() int {
	return len(tx.msg.TxIn)
}

// SignatureScript 返回第 i 个输入的解锁脚本，索引越界时返回 nil
func (tx *Transaction) SignatureScript(i int) []byte {
	if i < 0 || i >= len(tx.msg.TxIn) {
		return nil
	}
	return cloneBytes(tx.msg.TxIn[i].SignatureScript)
}

// MsgTx 返回交易的深拷贝，调用方可以自由修改
func (tx *Transaction) MsgTx() *wire.MsgTx {
	return tx.msg.Copy()
}

// Bytes 返回原始字节
func (tx *Transaction) Bytes() []byte {
	return cloneBytes(tx.raw)
}

// String 返回交易的可读表示形式，便于调试和日志记录
func (tx *Transaction) String() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("---Transaction: %s", tx.ID()))
	lines = append(lines, fmt.Sprintf("	Version: %d", tx.msg.Version))

	for i, in := range tx.msg.TxIn {
		lines = append(lines, fmt.Sprintf("	Input (%d):", i))
		lines = append(lines, fmt.Sprintf("		Prev: %s", in.PreviousOutPoint))
		lines = append(lines, fmt.Sprintf("		ScriptSig: %x", in.SignatureScript))
		lines = append(lines, fmt.Sprintf("		Sequence: %d", in.Sequence))
	}
	for i, out := range tx.msg.TxOut {
		lines = append(lines, fmt.Sprintf("	Output (%d):", i))
		lines = append(lines, fmt.Sprintf("		Value: %d", out.Value))
		lines = append(lines, fmt.Sprintf("		PkScript: %x", out.PkScript))
	}
	lines = append(lines, fmt.Sprintf("	LockTime: %d", tx.msg.LockTime))

	return strings.Join(lines, "\n")
}
