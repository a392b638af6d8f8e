// 打印

package stackeval

import (
	"fmt"
	"strings"
)

// FormatSnapshot 以栈顶在前的顺序逐行列出主堆栈和备用堆栈
func FormatSnapshot(snap Snapshot) string {
	var lines []string

	if len(snap.Main) == 0 {
		lines = append(lines, "main: <empty>")
	} else {
		lines = append(lines, fmt.Sprintf("main (%d):", len(snap.Main)))
		for i := len(snap.Main) - 1; i >= 0; i-- {
			lines = append(lines, fmt.Sprintf("\t[%d] %s", len(snap.Main)-1-i, Describe(snap.Main[i])))
		}
	}

	if len(snap.Alt) > 0 {
		lines = append(lines, fmt.Sprintf("alt (%d):", len(snap.Alt)))
		for i := len(snap.Alt) - 1; i >= 0; i-- {
			lines = append(lines, fmt.Sprintf("\t[%d] %s", len(snap.Alt)-1-i, Describe(snap.Alt[i])))
		}
	}

	return strings.Join(lines, "\n")
}

// FormatStep 单行描述一个步骤，失败的步骤附带原因
func FormatStep(step Step) string {
	text := fmt.Sprintf("#%d\t%-24s %s", step.Index, step.Op.String(), step.Log)
	if step.Failed {
		text += fmt.Sprintf("\tFAILED: %s", step.Err)
	}
	return text
}
