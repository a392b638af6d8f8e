package stackeval_test

import (
	"fmt"
	"io"

	"github.com/qinglongcn/stackeval"
	"github.com/sirupsen/logrus"
)

func quietStepper() *stackeval.Stepper {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return stackeval.NewStepper(stackeval.NewScriptEngine(0), stackeval.WithLogger(logrus.NewEntry(logger)))
}

func ExampleStepper() {
	script, err := stackeval.Compile("OP_2 OP_3 OP_ADD", nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	s := quietStepper()
	if err := s.Bind(&stackeval.ExecutionContext{Script: script}); err != nil {
		fmt.Println(err)
		return
	}
	state, _ := s.RunAll()

	for _, step := range s.History().Steps() {
		fmt.Println(step.Index, step.Log)
	}
	fmt.Println(state)

	// Output:
	// 0 push 0x02 (2)
	// 1 push 0x03 (3)
	// 2 OP_ADD: depth 2 -> 1, top 0x05 (5)
	// Halted-Success
}

func ExampleCursor() {
	script, _ := stackeval.Compile(`"ab" OP_SIZE OP_TOALTSTACK`, nil)

	s := quietStepper()
	_ = s.Bind(&stackeval.ExecutionContext{Script: script})
	_, _ = s.RunAll()

	c := s.Cursor()
	fmt.Println(c.Position())

	_, _ = c.Next()
	_, _ = c.Next()
	fmt.Println(stackeval.FormatSnapshot(c.Stack()))

	c.Prev()
	fmt.Println(c.Position(), c.Current().Log)

	// Output:
	// -1
	// main (2):
	// 	[0] 0x02 (2)
	// 	[1] "ab"
	// 0 push "ab"
}
