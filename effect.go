package stackeval

import "github.com/btcsuite/btcd/txscript"

// 条件栈中的分支状态，与 btcd 引擎一致
const (
	condFalse = iota // 条件为假，分支不执行
	condTrue         // 条件为真，分支执行
	condSkip         // 外层分支未执行，整个 IF 块都跳过
)

// branchTracker 跟踪 IF/NOTIF/ELSE/ENDIF 形成的条件栈，判断当前操作是否会被执行
type branchTracker struct {
	conds []int
}

// executing 当前分支是否执行
func (b *branchTracker) executing() bool {
	return len(b.conds) == 0 || b.conds[len(b.conds)-1] == condTrue
}

// update 在操作成功执行后更新条件栈。top 为执行前的主堆栈栈顶。
func (b *branchTracker) update(opcode byte, top []byte) {
	switch opcode {
	case txscript.OP_IF, txscript.OP_NOTIF:
		cond := condSkip
		if b.executing() {
			ok := castToBool(top)
			if opcode == txscript.OP_NOTIF {
				ok = !ok
			}
			cond = condFalse
			if ok {
				cond = condTrue
			}
		}
		b.conds = append(b.conds, cond)

	case txscript.OP_ELSE:
		if n := len(b.conds); n > 0 {
			switch b.conds[n-1] {
			case condTrue:
				b.conds[n-1] = condFalse
			case condFalse:
				b.conds[n-1] = condTrue
			}
		}

	case txscript.OP_ENDIF:
		if n := len(b.conds); n > 0 {
			b.conds = b.conds[:n-1]
		}
	}
}

// reset 脚本之间条件栈不延续
func (b *branchTracker) reset() {
	b.conds = nil
}

// isConditional IF 系列操作码在未执行的分支里也会执行
func isConditional(opcode byte) bool {
	switch opcode {
	case txscript.OP_IF, txscript.OP_NOTIF, txscript.OP_ELSE, txscript.OP_ENDIF:
		return true
	}
	return false
}

// castToBool 与脚本语言相同的真值判断：全零或负零为假
func castToBool(v []byte) bool {
	for i := range v {
		if v[i] != 0 {
			if i == len(v)-1 && v[i] == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

// opEffect 返回操作码对堆栈的作用方式
func opEffect(opcode byte, executing bool) Effect {
	if !executing && !isConditional(opcode) {
		return EffectNone
	}

	switch opcode {
	case txscript.OP_TOALTSTACK, txscript.OP_FROMALTSTACK,
		txscript.OP_2DROP, txscript.OP_2DUP, txscript.OP_3DUP,
		txscript.OP_2OVER, txscript.OP_2ROT, txscript.OP_2SWAP,
		txscript.OP_IFDUP, txscript.OP_DROP, txscript.OP_DUP,
		txscript.OP_NIP, txscript.OP_OVER, txscript.OP_PICK,
		txscript.OP_ROLL, txscript.OP_ROT, txscript.OP_SWAP, txscript.OP_TUCK:
		return EffectShuffle

	case txscript.OP_IF, txscript.OP_NOTIF, txscript.OP_ELSE, txscript.OP_ENDIF,
		txscript.OP_VERIFY, txscript.OP_RETURN,
		txscript.OP_EQUALVERIFY, txscript.OP_NUMEQUALVERIFY,
		txscript.OP_CHECKSIGVERIFY, txscript.OP_CHECKMULTISIGVERIFY,
		txscript.OP_CODESEPARATOR, txscript.OP_NOP,
		txscript.OP_NOP1, txscript.OP_CHECKLOCKTIMEVERIFY, txscript.OP_CHECKSEQUENCEVERIFY,
		txscript.OP_NOP4, txscript.OP_NOP5, txscript.OP_NOP6, txscript.OP_NOP7,
		txscript.OP_NOP8, txscript.OP_NOP9, txscript.OP_NOP10:
		return EffectConsume
	}
	return EffectCompute
}
