package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/gookit/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vrecan/death/v3"
)

var debugFlags contextFlags

var debugCmd = &cobra.Command{
	Use:   "debug [SCRIPT...]",
	Short: "Step through a script interactively",
	RunE:  debugCommand,
}

func init() {
	debugFlags.register(debugCmd)
}

func debugCommand(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}

	// ctrl+c 或 kill 时关闭变量数据库再退出
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	go d.WaitForDeathWithFunc(func() {
		if err := app.Close(); err != nil {
			logrus.Errorf("[debug] 关闭失败: %v", err)
		}
		os.Exit(1)
	})
	defer app.Close()

	req, err := debugFlags.request(app, args)
	if err != nil {
		return err
	}
	ctx, err := app.Context(req)
	if err != nil {
		return bindError(err)
	}

	console, err := NewConsole(app, ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer console.Close()

	return repl(console, cmd.InOrStdin(), cmd.OutOrStdout())
}

// repl 逐行读取命令直到输入结束或 quit
func repl(console *Console, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, color.Cyan.Sprint("stackeval debugger, type help for commands"))
	console.Execute("current")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "(stackeval) ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		err := console.Execute(scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, color.Red.Sprint(err))
		}
	}
}
