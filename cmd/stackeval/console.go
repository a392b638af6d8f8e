package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/gookit/color"
	"github.com/qinglongcn/stackeval"
)

// errQuit 用户要求退出控制台
var errQuit = errors.New("quit")

// Command 解析后的控制台命令
type Command struct {
	Name string
	Args []string
}

// ParseCommand 把一行输入拆分为命令名和参数
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return Command{}
	}
	parts := strings.Fields(input)
	return Command{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// Console 一个调试会话上的交互命令
type Console struct {
	app *stackeval.App
	id  string                      // 会话ID
	ctx *stackeval.ExecutionContext // 最近一次绑定的上下文，restart 时复用
	out io.Writer
}

// NewConsole 打开新会话并绑定给定的执行上下文
func NewConsole(app *stackeval.App, ctx *stackeval.ExecutionContext, out io.Writer) (*Console, error) {
	c := &Console{
		app: app,
		id:  app.Sessions().Open(),
		ctx: ctx,
		out: out,
	}
	if err := c.with(func(s *stackeval.Stepper) error { return s.Bind(ctx) }); err != nil {
		app.Sessions().Close(c.id)
		return nil, err
	}
	return c, nil
}

// Close 关闭会话
func (c *Console) Close() error {
	return c.app.Sessions().Close(c.id)
}

func (c *Console) with(fn func(*stackeval.Stepper) error) error {
	return c.app.Sessions().With(c.id, fn)
}

// Execute 执行一行命令。返回 errQuit 表示退出。
func (c *Console) Execute(line string) error {
	cmd := ParseCommand(line)
	switch cmd.Name {
	case "":
		return nil
	case "quit", "q", "exit":
		return errQuit
	case "help", "?":
		c.help()
		return nil
	}

	return c.with(func(s *stackeval.Stepper) error {
		switch cmd.Name {
		case "next", "n":
			step, err := s.Cursor().Next()
			if err != nil {
				return err
			}
			c.printStep(s, step)

		case "prev", "p":
			c.printStep(s, s.Cursor().Prev())

		case "jump", "j":
			if len(cmd.Args) != 1 {
				return errors.New("usage: jump INDEX")
			}
			index, err := strconv.Atoi(cmd.Args[0])
			if err != nil {
				return fmt.Errorf("invalid step index %q", cmd.Args[0])
			}
			if err := s.Cursor().JumpTo(index); err != nil {
				return err
			}
			c.printStep(s, s.Cursor().Current())

		case "run", "r":
			if _, err := s.RunAll(); err != nil {
				return err
			}
			if n := s.History().Len(); n > 0 {
				if err := s.Cursor().JumpTo(n - 1); err != nil {
					return err
				}
			}
			c.printStep(s, s.Cursor().Current())
			printState(c.out, s)

		case "current", "c":
			c.printStep(s, s.Cursor().Current())

		case "stack", "s":
			fmt.Fprintln(c.out, colorSnapshot(s.Cursor().Stack()))

		case "dump", "d":
			step := s.Cursor().Current()
			if step == nil {
				fmt.Fprintln(c.out, "<start>")
				return nil
			}
			fmt.Fprint(c.out, spew.Sdump(step))

		case "history", "h":
			printHistory(c.out, s.History(), s.Cursor().Position())

		case "state":
			printState(c.out, s)

		case "restart":
			if err := s.Bind(c.ctx); err != nil {
				return err
			}
			printState(c.out, s)

		case "reset":
			s.Reset()
			printState(c.out, s)

		case "export":
			if len(cmd.Args) != 1 {
				return errors.New("usage: export NAME")
			}
			path, err := c.app.Files().ExportHistory(cmd.Args[0], s.History())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "trace written to %s\n", path)

		default:
			return fmt.Errorf("unknown command %q, type help", cmd.Name)
		}
		return nil
	})
}

// printStep 输出游标处的步骤和对应的堆栈
func (c *Console) printStep(s *stackeval.Stepper, step *stackeval.Step) {
	if step == nil {
		fmt.Fprintf(c.out, "<start>  %s\n", s.State())
		fmt.Fprintln(c.out, colorSnapshot(stackeval.Snapshot{}))
		return
	}

	line := stackeval.FormatStep(*step)
	if step.Failed {
		line = color.Red.Sprint(line)
	}
	fmt.Fprintln(c.out, line)
	fmt.Fprintln(c.out, colorSnapshot(step.Stack))
}

func (c *Console) help() {
	fmt.Fprint(c.out, `commands:
  next, n          execute or replay the next step
  prev, p          move back one step
  jump, j INDEX    move to a recorded step (-1 is the start)
  run, r           execute to the end
  current, c       show the step at the cursor
  stack, s         show the stacks at the cursor
  dump, d          dump the step at the cursor
  history, h       list recorded steps
  state            show the execution state
  restart          bind the script again and start over
  reset            unbind and clear everything
  export NAME      write the trace as JSON
  quit, q          leave
`)
}

// colorSnapshot 按来源给堆栈项着色：变量为品红色，字符串为灰色
func colorSnapshot(snap stackeval.Snapshot) string {
	lines := strings.Split(stackeval.FormatSnapshot(snap), "\n")
	render := func(items []stackeval.Item, start int) {
		for i := range items {
			it := items[len(items)-1-i]
			switch it.Kind {
			case stackeval.KindVariable:
				lines[start+i] = color.Magenta.Sprint(lines[start+i])
			case stackeval.KindString:
				lines[start+i] = color.Gray.Sprint(lines[start+i])
			}
		}
	}

	if len(snap.Main) > 0 {
		render(snap.Main, 1)
	}
	if len(snap.Alt) > 0 {
		offset := 1
		if len(snap.Main) > 0 {
			offset += len(snap.Main) + 1
		} else {
			offset++
		}
		render(snap.Alt, offset)
	}
	return strings.Join(lines, "\n")
}
