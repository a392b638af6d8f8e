package stackeval

import "fmt"

// ExecutionContext 一次运行所需的全部输入，每次运行新建，由 Stepper 独占
type ExecutionContext struct {
	Script      *Script      // 待执行的脚本（锁定脚本）
	Unlock      *Script      // 可选：先于 Script 执行的解锁脚本
	Tx          *Transaction // 可选：包含被测输入的交易
	InputIndex  int          // 被测输入在交易中的索引，仅 Tx 不为 nil 时有效
	InputAmount int64        // 被花费输出的金额（聪），用于签名哈希
}

// NewExecutionContext 创建执行上下文。
// 有交易时，被测输入的解锁脚本会被解析为 Unlock，执行时先于 script 运行。
func NewExecutionContext(script *Script, tx *Transaction, inputIndex int, inputAmount int64) (*ExecutionContext, error) {
	ctx := &ExecutionContext{
		Script:      script,
		Tx:          tx,
		InputIndex:  inputIndex,
		InputAmount: inputAmount,
	}
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if tx == nil {
		return ctx, nil
	}

	if sigScript := tx.SignatureScript(inputIndex); len(sigScript) > 0 {
		unlock, err := ParseScript(sigScript)
		if err != nil {
			return nil, fmt.Errorf("解析输入 %d 的解锁脚本失败: %w", inputIndex, err)
		}
		ctx.Unlock = unlock
	}
	return ctx, nil
}

// Verifying 是否走交易验证路径
func (ctx *ExecutionContext) Verifying() bool {
	return ctx != nil && ctx.Tx != nil
}

// Ops 按执行顺序返回全部操作：先解锁脚本，再锁定脚本。Index 为在整个序列中的位置。
func (ctx *ExecutionContext) Ops() []Operation {
	ops := make([]Operation, 0, ctx.Unlock.Len()+ctx.Script.Len())
	for _, s := range []*Script{ctx.Unlock, ctx.Script} {
		if s == nil {
			continue
		}
		for _, op := range s.Ops {
			op = op.clone()
			op.Index = len(ops)
			ops = append(ops, op)
		}
	}
	return ops
}

// Validate 检查上下文是否可以绑定
func (ctx *ExecutionContext) Validate() error {
	if ctx.Script == nil {
		return fmt.Errorf("%w: 执行上下文缺少脚本", ErrParse)
	}
	if ctx.Tx == nil {
		if ctx.Unlock != nil {
			return fmt.Errorf("%w: 解锁脚本需要交易上下文", ErrNoTransaction)
		}
		return nil
	}
	if n := ctx.Tx.NumInputs(); ctx.InputIndex < 0 || ctx.InputIndex >= n {
		return fmt.Errorf("%w: 输入索引 %d 不在 [0, %d) 内", ErrOutOfRange, ctx.InputIndex, n)
	}
	return nil
}

// Evaluator 外部操作码评估器：就地修改两个堆栈，返回可读日志或错误
type Evaluator interface {
	Evaluate(op Operation, m *Machine, ctx *ExecutionContext) (string, error)
}

// Preparer 评估器可选实现：绑定上下文时准备内部状态
type Preparer interface {
	Prepare(ctx *ExecutionContext) error
}

// Finisher 评估器可选实现：全部操作执行完后检查最终堆栈
type Finisher interface {
	Finish(m *Machine, ctx *ExecutionContext) error
}
