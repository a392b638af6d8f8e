// 实现了脚本执行过程中的主堆栈与备用堆栈，以及用于记录的堆栈快照。

package stackeval

import (
	"bytes"
	"fmt"
)

// ItemKind 堆栈项的来源类型，仅供展示层使用
type ItemKind int

const (
	KindRaw      ItemKind = iota // 普通字节
	KindVariable                 // 由变量替换得到
	KindString                   // 字符串字面量
)

// String 返回来源类型的名称
func (k ItemKind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindString:
		return "string"
	default:
		return "raw"
	}
}

// Item 堆栈中的一项：字节内容加上来源标记
type Item struct {
	Data []byte   // 字节内容
	Kind ItemKind // 来源类型
	Var  string   // 变量名，仅 Kind 为 KindVariable 时有效
}

// RawItem 用字节内容创建一个普通堆栈项
func RawItem(data []byte) Item {
	return Item{Data: cloneBytes(data)}
}

// clone 返回堆栈项的深拷贝
func (it Item) clone() Item {
	it.Data = cloneBytes(it.Data)
	return it
}

// Stack 后进先出的值堆栈。压入和读取都会复制字节，调用方的缓冲区不会与堆栈共享。
type Stack struct {
	stk []Item
}

// NewStack 创建一个空堆栈
func NewStack() *Stack {
	return &Stack{}
}

// Size 返回堆栈上的项目数
func (s *Stack) Size() int {
	return len(s.stk)
}

// Push 将一项压入堆栈顶部
//
// 堆栈转换: [... x1 x2] -> [... x1 x2 item]
func (s *Stack) Push(item Item) {
	s.stk = append(s.stk, item.clone())
}

// PushBytes 将字节压入堆栈顶部
func (s *Stack) PushBytes(data []byte) {
	s.Push(Item{Data: data})
}

// Pop 将堆栈顶部的项弹出并返回
//
// 堆栈转换: [... x1 x2 x3] -> [... x1 x2]
func (s *Stack) Pop() (Item, error) {
	if len(s.stk) == 0 {
		return Item{}, fmt.Errorf("%w: 无法弹出", ErrEmptyStack)
	}
	item := s.stk[len(s.stk)-1]
	s.stk = s.stk[:len(s.stk)-1]
	return item, nil
}

// Peek 返回从顶部数第 depth 项（0 为顶部）而不删除它
func (s *Stack) Peek(depth int) (Item, error) {
	sz := len(s.stk)
	if sz == 0 {
		return Item{}, fmt.Errorf("%w: 无法读取第 %d 项", ErrEmptyStack, depth)
	}
	if depth < 0 || depth >= sz {
		return Item{}, fmt.Errorf("%w: 深度 %d 超出堆栈大小 %d", ErrOutOfRange, depth, sz)
	}
	return s.stk[sz-depth-1].clone(), nil
}

// Items 自下而上返回堆栈内容的拷贝，最后一项为栈顶
func (s *Stack) Items() []Item {
	return cloneItems(s.stk)
}

// Bytes 自下而上返回堆栈字节内容的拷贝，最后一项为栈顶
func (s *Stack) Bytes() [][]byte {
	out := make([][]byte, len(s.stk))
	for i, it := range s.stk {
		out[i] = cloneBytes(it.Data)
	}
	return out
}

// Reconcile 用新内容替换堆栈，只有自底向上未变化的前缀保留来源标记，其余为普通字节
func (s *Stack) Reconcile(data [][]byte) {
	s.reconcile(data, s.prefix(data), nil)
}

// prefix 返回自底向上与 data 逐项相同的项数
func (s *Stack) prefix(data [][]byte) int {
	keep := 0
	for keep < len(s.stk) && keep < len(data) && bytes.Equal(s.stk[keep].Data, data[keep]) {
		keep++
	}
	return keep
}

// reconcile 保留前 keep 项，之后的项从 pool 中取字节相同的项的标记（取最靠近栈顶的一个），否则为普通字节
func (s *Stack) reconcile(data [][]byte, keep int, pool []Item) {
	next := make([]Item, len(data))
	copy(next, s.stk[:keep])
	for i := keep; i < len(data); i++ {
		next[i] = RawItem(data[i])
		for j := len(pool) - 1; j >= 0; j-- {
			if bytes.Equal(pool[j].Data, data[i]) {
				next[i] = pool[j].clone()
				break
			}
		}
	}
	s.stk = next
}

// tagTop 给栈顶项打上来源标记，前提是字节内容与来源一致
func (s *Stack) tagTop(src Item) {
	if len(s.stk) == 0 || src.Kind == KindRaw {
		return
	}
	top := &s.stk[len(s.stk)-1]
	if !bytes.Equal(top.Data, src.Data) {
		return
	}
	top.Kind = src.Kind
	top.Var = src.Var
}

// Clear 清空堆栈
func (s *Stack) Clear() {
	s.stk = nil
}

// restore 用快照内容整体替换堆栈
func (s *Stack) restore(items []Item) {
	s.stk = cloneItems(items)
}

// Machine 脚本语言执行模型中的两个堆栈：主堆栈和备用堆栈
type Machine struct {
	Main *Stack // 主堆栈
	Alt  *Stack // 备用堆栈
}

// NewMachine 创建两个空堆栈
func NewMachine() *Machine {
	return &Machine{Main: NewStack(), Alt: NewStack()}
}

// Snapshot 生成当前堆栈状态的值拷贝
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{Main: m.Main.Items(), Alt: m.Alt.Items()}
}

// Clear 清空两个堆栈
func (m *Machine) Clear() {
	m.Main.Clear()
	m.Alt.Clear()
}

// Effect 一条操作对堆栈的作用方式，决定来源标记如何延续
type Effect int

const (
	EffectNone    Effect = iota // 没有改变堆栈（未执行的分支）
	EffectShuffle               // 只移动或复制已有的项
	EffectConsume               // 只弹出，不产生新值
	EffectCompute               // 弹出若干项后压入一个新值
)

// Reconcile 用评估器给出的新内容替换两个堆栈。
// 未变化的前缀保留原有标记；只有移动或复制类操作产生的项沿用被复制项的标记，计算结果一律为普通字节。
func (m *Machine) Reconcile(effect Effect, main, alt [][]byte) {
	var mainPool, altPool []Item
	if effect == EffectShuffle || effect == EffectNone {
		// 从池尾向前匹配：跨堆栈移动的项优先匹配来源堆栈
		mainPool = append(m.Main.Items(), m.Alt.Items()...)
		altPool = append(m.Alt.Items(), m.Main.Items()...)
	}

	keep := m.Main.prefix(main)
	if effect == EffectCompute && keep == len(main) && keep > 0 {
		// 栈顶是新计算出的值
		keep--
	}
	m.Main.reconcile(main, keep, mainPool)
	m.Alt.reconcile(alt, m.Alt.prefix(alt), altPool)
}

// restore 将两个堆栈恢复到快照时的状态
func (m *Machine) restore(snap Snapshot) {
	m.Main.restore(snap.Main)
	m.Alt.restore(snap.Alt)
}

// Snapshot 某一时刻主堆栈与备用堆栈的不可变拷贝，自下而上排列
type Snapshot struct {
	Main []Item
	Alt  []Item
}

// Clone 返回快照的深拷贝
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Main: cloneItems(s.Main), Alt: cloneItems(s.Alt)}
}

// Top 返回主堆栈的栈顶项
func (s Snapshot) Top() (Item, bool) {
	if len(s.Main) == 0 {
		return Item{}, false
	}
	return s.Main[len(s.Main)-1].clone(), true
}

// Equal 判断两个快照的内容与来源标记是否完全相同
func (s Snapshot) Equal(o Snapshot) bool {
	return itemsEqual(s.Main, o.Main) && itemsEqual(s.Alt, o.Alt)
}

func itemsEqual(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Var != b[i].Var || !bytes.Equal(a[i].Data, b[i].Data) {
			return false
		}
	}
	return true
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}
