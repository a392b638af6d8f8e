package stackeval

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// State 执行状态机的状态
type State int

const (
	Idle          State = iota // 没有绑定上下文
	Ready                      // 已绑定，尚未执行
	Running                    // 已执行部分操作
	HaltedSuccess              // 全部操作执行完毕
	HaltedFailure              // 某个操作失败或最终堆栈无效
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case HaltedSuccess:
		return "Halted-Success"
	case HaltedFailure:
		return "Halted-Failure"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Halted 是否处于终止状态
func (s State) Halted() bool {
	return s == HaltedSuccess || s == HaltedFailure
}

// Stepper 逐条执行脚本的状态机。
// 独占堆栈、历史记录和游标，不能被多个 goroutine 同时使用；并发会话请使用 Sessions。
type Stepper struct {
	eval    Evaluator
	state   State
	ctx     *ExecutionContext
	machine *Machine
	history *History
	cursor  *Cursor
	ops     []Operation // 按执行顺序排列的操作：解锁脚本在前
	pc      int   // 下一条要执行的操作
	err     error // 终止原因，仅 HaltedFailure 时有值
	max     int   // 最大步数，0 表示不限制
	log     *logrus.Entry
}

// StepperOption 配置 Stepper
type StepperOption func(*Stepper)

// WithLogger 设置日志入口
func WithLogger(entry *logrus.Entry) StepperOption {
	return func(s *Stepper) {
		s.log = entry
	}
}

// WithMaxSteps 限制一次执行最多执行的操作数。
// 第 n+1 条操作不会执行，而是记录为失败步骤并以 ErrOutOfRange 终止。
func WithMaxSteps(n int) StepperOption {
	return func(s *Stepper) {
		s.max = n
	}
}

// NewStepper 创建一个处于 Idle 状态的 Stepper
func NewStepper(eval Evaluator, opts ...StepperOption) *Stepper {
	s := &Stepper{
		eval:    eval,
		machine: NewMachine(),
		history: NewHistory(),
		log:     logrus.WithField("module", "stepper"),
	}
	s.cursor = &Cursor{pos: BeforeStart, s: s}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind 绑定新的执行上下文，进入 Ready。堆栈、历史和游标先被清空。
// 上下文无效或评估器准备失败时返回错误，状态保持 Idle。
func (s *Stepper) Bind(ctx *ExecutionContext) error {
	s.clear()

	if ctx == nil {
		return fmt.Errorf("%w: 执行上下文为空", ErrNotBound)
	}
	if err := ctx.Validate(); err != nil {
		return err
	}
	if p, ok := s.eval.(Preparer); ok {
		if err := p.Prepare(ctx); err != nil {
			return fmt.Errorf("准备评估器失败: %w", err)
		}
	}

	s.ctx = ctx
	s.ops = ctx.Ops()
	s.state = Ready
	s.log.WithFields(logrus.Fields{
		"ops":       len(s.ops),
		"unlock":    ctx.Unlock.Len(),
		"verifying": ctx.Verifying(),
	}).Debug("绑定执行上下文")
	return nil
}

// Step 执行下一条操作并记录一个步骤。
// Idle 时返回 ErrNotBound；终止状态下不做任何事，直接返回当前状态。
// 操作失败不会作为错误返回，而是记录为失败步骤并进入 HaltedFailure。
func (s *Stepper) Step() (State, error) {
	switch {
	case s.state == Idle:
		return s.state, ErrNotBound
	case s.state.Halted():
		return s.state, nil
	}

	ops := s.ops
	if s.pc >= len(ops) {
		// 空脚本：没有可记录的操作
		if err := s.finish(); err != nil {
			s.halt(HaltedFailure, fmt.Errorf("最终堆栈检查失败: %w", err))
		} else {
			s.halt(HaltedSuccess, nil)
		}
		return s.state, nil
	}

	op := ops[s.pc]
	before := s.machine.Snapshot()

	if s.max > 0 && s.history.Len() >= s.max {
		// 未执行的操作记为失败步骤，堆栈保持不变
		err := fmt.Errorf("%w: 超过最大步数 %d", ErrOutOfRange, s.max)
		s.history.Record(op, before, fmt.Sprintf("%s: 未执行，超过最大步数 %d", op, s.max), true, err.Error())
		s.halt(HaltedFailure, fmt.Errorf("操作 %d (%s) 未执行: %w", op.Index, op, err))
		return s.state, nil
	}

	text, err := s.eval.Evaluate(op, s.machine, s.ctx)
	s.pc++

	if err != nil {
		// 操作按原子处理：失败时堆栈回到执行前
		s.machine.restore(before)
		if text == "" {
			text = fmt.Sprintf("%s: %v", op, err)
		}
		s.history.Record(op, before, text, true, err.Error())
		s.halt(HaltedFailure, fmt.Errorf("操作 %d (%s) 执行失败: %w", op.Index, op, err))
		return s.state, nil
	}

	if s.machine.Main.Size() == len(before.Main)+1 {
		// 推送操作新压入的项带上变量或字符串来源
		s.machine.Main.tagTop(op.Source)
	}
	after := s.machine.Snapshot()

	if s.pc < len(ops) {
		s.history.Record(op, after, text, false, "")
		s.state = Running
		return s.state, nil
	}

	if err := s.finish(); err != nil {
		s.history.Record(op, after, text, true, err.Error())
		s.halt(HaltedFailure, fmt.Errorf("最终堆栈检查失败: %w", err))
		return s.state, nil
	}
	s.history.Record(op, after, text, false, "")
	s.halt(HaltedSuccess, nil)
	return s.state, nil
}

// RunAll 连续执行直到终止状态
func (s *Stepper) RunAll() (State, error) {
	for {
		state, err := s.Step()
		if err != nil || state.Halted() {
			return state, err
		}
	}
}

// Reset 回到 Idle：清空上下文、堆栈、历史和游标
func (s *Stepper) Reset() {
	s.clear()
	s.log.Debug("重置")
}

// State 返回当前状态
func (s *Stepper) State() State {
	return s.state
}

// Context 返回当前绑定的执行上下文
func (s *Stepper) Context() *ExecutionContext {
	return s.ctx
}

// History 返回历史记录的只读视图
func (s *Stepper) History() HistoryReader {
	return s.history
}

// Cursor 返回游标
func (s *Stepper) Cursor() *Cursor {
	return s.cursor
}

// Stack 返回当前堆栈的快照
func (s *Stepper) Stack() Snapshot {
	return s.machine.Snapshot()
}

// PC 返回下一条要执行的操作的位置
func (s *Stepper) PC() int {
	return s.pc
}

// Err 返回终止原因，仅在 HaltedFailure 时不为 nil
func (s *Stepper) Err() error {
	return s.err
}

// finish 全部操作执行完后的最终检查
func (s *Stepper) finish() error {
	if f, ok := s.eval.(Finisher); ok {
		return f.Finish(s.machine, s.ctx)
	}
	return nil
}

// halt 进入终止状态
func (s *Stepper) halt(state State, err error) {
	s.state = state
	s.err = err

	entry := s.log.WithFields(logrus.Fields{
		"state": state,
		"steps": s.history.Len(),
	})
	if err != nil {
		entry.WithError(err).Info("执行终止")
		return
	}
	entry.Info("执行完成")
}

func (s *Stepper) clear() {
	s.state = Idle
	s.ctx = nil
	s.ops = nil
	s.machine.Clear()
	s.history.Clear()
	s.cursor.reset()
	s.pc = 0
	s.err = nil
}
