package stackeval

import "fmt"

// Step 一次执行进度的记录：执行的操作、操作后的堆栈和可读日志。创建后不可修改，只追加。
type Step struct {
	Index  int       // 在历史中的位置（从 0 开始，单调递增）
	Op     Operation // 执行的操作
	Stack  Snapshot  // 操作后的堆栈
	Log    string    // 可读日志
	Failed bool      // 操作是否失败
	Err    string    // 失败原因
}

// Clone 返回步骤的深拷贝
func (st Step) Clone() Step {
	st.Op = st.Op.clone()
	st.Stack = st.Stack.Clone()
	return st
}

// HistoryReader 历史记录的只读视图，交给展示层使用
type HistoryReader interface {
	Len() int
	At(i int) (Step, error)
	Steps() []Step
	Last() (Step, bool)
}

// History 当前运行产生的有序步骤序列
type History struct {
	steps []Step
}

// NewHistory 创建空的历史记录
func NewHistory() *History {
	return &History{}
}

// Record 追加一个步骤并分配下一个序号
func (h *History) Record(op Operation, stackAfter Snapshot, log string, failed bool, errDetail string) Step {
	st := Step{
		Index:  len(h.steps),
		Op:     op.clone(),
		Stack:  stackAfter.Clone(),
		Log:    log,
		Failed: failed,
		Err:    errDetail,
	}
	h.steps = append(h.steps, st)
	return st.Clone()
}

// Len 返回步骤数量
func (h *History) Len() int {
	return len(h.steps)
}

// At 返回第 i 个步骤的拷贝
func (h *History) At(i int) (Step, error) {
	if i < 0 || i >= len(h.steps) {
		return Step{}, fmt.Errorf("%w: 步骤 %d 不在 [0, %d) 内", ErrOutOfRange, i, len(h.steps))
	}
	return h.steps[i].Clone(), nil
}

// Steps 返回全部步骤的拷贝
func (h *History) Steps() []Step {
	out := make([]Step, len(h.steps))
	for i, st := range h.steps {
		out[i] = st.Clone()
	}
	return out
}

// Last 返回最后一个步骤
func (h *History) Last() (Step, bool) {
	if len(h.steps) == 0 {
		return Step{}, false
	}
	return h.steps[len(h.steps)-1].Clone(), true
}

// Clear 丢弃全部步骤，序号从 0 重新开始
func (h *History) Clear() {
	h.steps = nil
}
