package stackeval

import "fmt"

// BeforeStart 游标的哨兵位置：尚未执行任何步骤，对应空的初始堆栈
const BeforeStart = -1

// Cursor 在已记录的历史中前后移动的浏览位置，与实际执行进度相互独立。
// 取值范围 [BeforeStart, History.Len()-1]。
type Cursor struct {
	pos int
	s   *Stepper
}

// Position 返回当前位置，BeforeStart 表示哨兵
func (c *Cursor) Position() int {
	return c.pos
}

// AtStart 是否位于哨兵位置
func (c *Cursor) AtStart() bool {
	return c.pos == BeforeStart
}

// AtEnd 是否位于最后一个已记录的步骤（历史为空时即哨兵）
func (c *Cursor) AtEnd() bool {
	return c.pos == c.s.history.Len()-1
}

// Current 返回游标处的步骤，nil 表示哨兵
func (c *Cursor) Current() *Step {
	if c.pos == BeforeStart {
		return nil
	}
	st, err := c.s.history.At(c.pos)
	if err != nil {
		return nil
	}
	return &st
}

// Next 前进一步。
// 已记录范围内只是回放；越过最后一个已记录的步骤时驱动 Stepper 执行一步，再移动到新记录的步骤。
// Stepper 已终止时游标不动。
func (c *Cursor) Next() (*Step, error) {
	if c.pos+1 < c.s.history.Len() {
		c.pos++
		return c.Current(), nil
	}
	if c.s.state.Halted() {
		return c.Current(), nil
	}

	n := c.s.history.Len()
	if _, err := c.s.Step(); err != nil {
		return c.Current(), err
	}
	if c.s.history.Len() > n {
		c.pos = c.s.history.Len() - 1
	}
	return c.Current(), nil
}

// Prev 后退一步，最多退到哨兵位置
func (c *Cursor) Prev() *Step {
	if c.pos > BeforeStart {
		c.pos--
	}
	return c.Current()
}

// JumpTo 跳到指定步骤，index 可以是 BeforeStart。越界时返回 ErrOutOfRange，位置不变。
func (c *Cursor) JumpTo(index int) error {
	if index < BeforeStart || index >= c.s.history.Len() {
		return fmt.Errorf("%w: 步骤 %d 不在 [%d, %d] 内", ErrOutOfRange, index, BeforeStart, c.s.history.Len()-1)
	}
	c.pos = index
	return nil
}

// Stack 返回游标处应显示的堆栈，哨兵位置为空堆栈
func (c *Cursor) Stack() Snapshot {
	if st := c.Current(); st != nil {
		return st.Stack
	}
	return Snapshot{}
}

func (c *Cursor) reset() {
	c.pos = BeforeStart
}
