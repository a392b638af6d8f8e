package stackeval

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/sirupsen/logrus"
)

const (
	// sigCacheSize 签名缓存的最大条目数
	sigCacheSize = 1000

	// unsupportedFlags 单脚本逐步执行不支持的标志：它们会让引擎在脚本之后追加赎回脚本或见证脚本，
	// 使步骤与操作不再一一对应
	unsupportedFlags = txscript.ScriptBip16 | txscript.ScriptVerifyWitness |
		txscript.ScriptVerifyCleanStack | txscript.ScriptVerifyTaproot
)

// ScriptEngine 基于 btcd txscript.Engine 的操作码评估器。
// 堆栈由 Stepper 持有，每一步先把堆栈写入引擎，执行一条操作码后再读回。
type ScriptEngine struct {
	flags    txscript.ScriptFlags
	sigCache *txscript.SigCache
	vm       *txscript.Engine
	done     bool

	unlockOps int           // 解锁脚本的操作数，执行到这里时切换到锁定脚本
	executed  int           // 已成功执行的操作数
	dropAlt   bool          // 上一个脚本已结束，备用堆栈不延续到下一个脚本
	branch    branchTracker // 当前脚本的条件栈
}

// NewScriptEngine 使用给定的脚本验证标志创建评估器
func NewScriptEngine(flags txscript.ScriptFlags) *ScriptEngine {
	if flags&unsupportedFlags != 0 {
		logrus.Warnf("[NewScriptEngine] 忽略不支持逐步执行的脚本标志: %#x", uint32(flags&unsupportedFlags))
		flags &^= unsupportedFlags
	}
	return &ScriptEngine{
		flags:    flags,
		sigCache: txscript.NewSigCache(sigCacheSize),
	}
}

// Prepare 为新的执行上下文创建 btcd 引擎。
// 解锁脚本作为 btcd 的第一个脚本执行，Script 作为第二个。
func (e *ScriptEngine) Prepare(ctx *ExecutionContext) error {
	e.vm = nil
	e.done = false
	e.unlockOps = ctx.Unlock.Len()
	e.executed = 0
	e.dropAlt = false
	e.branch.reset()

	// 没有可执行的操作，btcd 也不接受两个空脚本
	if len(ctx.Ops()) == 0 {
		return nil
	}

	tx, idx := spendingTx(ctx)
	fetcher := txscript.NewCannedPrevOutputFetcher(ctx.Script.Raw, ctx.InputAmount)
	hashes := txscript.NewTxSigHashes(tx, fetcher)

	vm, err := txscript.NewEngine(ctx.Script.Raw, tx, idx, e.flags, e.sigCache, hashes, ctx.InputAmount, fetcher)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	e.vm = vm
	return nil
}

// Evaluate 执行一条操作码，成功时把结果写回堆栈。失败时不修改堆栈。
func (e *ScriptEngine) Evaluate(op Operation, m *Machine, ctx *ExecutionContext) (string, error) {
	if e.vm == nil {
		return "", fmt.Errorf("%w: 脚本引擎未准备", ErrNotBound)
	}
	if e.done {
		return "", fmt.Errorf("%w: 脚本已执行完毕", ErrOutOfRange)
	}

	if e.dropAlt {
		// 新脚本开始：备用堆栈不延续
		m.Alt.Clear()
		e.dropAlt = false
	}

	depth := m.Main.Size()
	prevMain := m.Main.Bytes()
	prevAlt := m.Alt.Bytes()
	e.vm.SetStack(prevMain)
	e.vm.SetAltStack(prevAlt)

	done, err := e.vm.Step()
	if err != nil {
		if isSigOpcode(op.Opcode) && !ctx.Verifying() {
			return "", fmt.Errorf("%w: %s 需要交易上下文 (%v)", ErrNoTransaction, op, err)
		}
		return "", translateError(err)
	}

	main := e.vm.GetStack()
	// 没有交易时签名检查的结果没有意义；处于未执行分支的签名操作码不会改变堆栈
	if isSigOpcode(op.Opcode) && !ctx.Verifying() && len(main) != depth {
		return "", fmt.Errorf("%w: %s 需要交易上下文", ErrNoTransaction, op)
	}

	executing := e.branch.executing()
	var top []byte
	if depth > 0 {
		top = prevMain[depth-1]
	}
	e.branch.update(op.Opcode, top)

	e.executed++
	e.done = done
	alt := e.vm.GetAltStack()
	if done || e.executed == e.unlockOps {
		// btcd 在脚本结束时已清空备用堆栈，这一步的结果按操作本身的作用还原
		alt = altAfter(op.Opcode, prevMain, prevAlt)
		e.dropAlt = !done
		e.branch.reset()
	}
	m.Reconcile(opEffect(op.Opcode, executing), main, alt)

	return effectLog(op, depth, m), nil
}

// Finish 验证路径下检查最终堆栈：必须非空且栈顶为真
func (e *ScriptEngine) Finish(m *Machine, ctx *ExecutionContext) error {
	if !ctx.Verifying() {
		return nil
	}
	if e.vm == nil {
		return fmt.Errorf("%w: 脚本执行结束时堆栈为空", ErrEmptyStack)
	}

	e.vm.SetStack(m.Main.Bytes())
	return translateError(e.vm.CheckErrorCondition(true))
}

// altAfter 脚本最后一条操作执行后的备用堆栈。脚本结束时条件栈已平衡，这条操作一定被执行。
func altAfter(opcode byte, main, alt [][]byte) [][]byte {
	switch opcode {
	case txscript.OP_TOALTSTACK:
		if len(main) > 0 {
			return append(alt, main[len(main)-1])
		}
	case txscript.OP_FROMALTSTACK:
		if len(alt) > 0 {
			return alt[:len(alt)-1]
		}
	}
	return alt
}

// spendingTx 返回引擎使用的交易和输入索引，被测输入的解锁脚本换成上下文中的 Unlock。
// 没有交易时使用只有一个输入的空交易；见证数据总是被清空。
func spendingTx(ctx *ExecutionContext) (*wire.MsgTx, int) {
	var sigScript []byte
	if ctx.Unlock != nil {
		sigScript = cloneBytes(ctx.Unlock.Raw)
	}

	if !ctx.Verifying() {
		tx := wire.NewMsgTx(wire.TxVersion)
		tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{}, sigScript, nil))
		return tx, 0
	}

	tx := ctx.Tx.MsgTx()
	tx.TxIn[ctx.InputIndex].SignatureScript = sigScript
	tx.TxIn[ctx.InputIndex].Witness = nil
	return tx, ctx.InputIndex
}

// isSigOpcode 判断是否为需要交易上下文的签名类操作码
func isSigOpcode(opcode byte) bool {
	switch opcode {
	case txscript.OP_CHECKSIG, txscript.OP_CHECKSIGVERIFY,
		txscript.OP_CHECKMULTISIG, txscript.OP_CHECKMULTISIGVERIFY,
		txscript.OP_CHECKSIGADD:
		return true
	}
	return false
}

// translateError 把 btcd 的堆栈错误映射到 ErrEmptyStack
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if txscript.IsErrorCode(err, txscript.ErrInvalidStackOperation) ||
		txscript.IsErrorCode(err, txscript.ErrEmptyStack) {
		return fmt.Errorf("%w: %w", ErrEmptyStack, err)
	}
	return err
}
