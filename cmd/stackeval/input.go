package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/qinglongcn/stackeval"
	"github.com/spf13/cobra"
)

// contextFlags 描述执行上下文的命令行参数，run 和 debug 共用
type contextFlags struct {
	scriptFile string
	tx         string
	txFile     string
	input      int
	amount     int64
}

func (f *contextFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.scriptFile, "file", "f", "", "Read the script from a file")
	cmd.Flags().StringVar(&f.tx, "tx", "", "Spending transaction as hex or $variable; enables verification")
	cmd.Flags().StringVar(&f.txFile, "tx-file", "", "Read the spending transaction hex from a file")
	cmd.Flags().IntVar(&f.input, "input", 0, "Index of the input being verified")
	cmd.Flags().Int64Var(&f.amount, "amount", 0, "Amount in satoshis of the output being spent")
}

// request 把参数和文件内容组合为 ContextRequest
func (f *contextFlags) request(app *stackeval.App, args []string) (stackeval.ContextRequest, error) {
	req := stackeval.ContextRequest{
		Script:      strings.Join(args, " "),
		Transaction: f.tx,
		InputIndex:  f.input,
		InputAmount: f.amount,
	}

	if f.scriptFile != "" {
		text, err := app.Files().ReadText(f.scriptFile)
		if err != nil {
			return req, err
		}
		req.Script = text
	}
	if f.txFile != "" {
		text, err := app.Files().ReadText(f.txFile)
		if err != nil {
			return req, err
		}
		req.Transaction = text
	}

	if strings.TrimSpace(req.Script) == "" {
		return req, errors.New("no script given: pass it as arguments or with --file")
	}
	return req, nil
}

// bindError 把绑定阶段的错误转换为更易读的提示
func bindError(err error) error {
	switch {
	case errors.Is(err, stackeval.ErrDeserialization):
		return fmt.Errorf("the transaction could not be decoded: %w", err)
	case errors.Is(err, stackeval.ErrParse):
		return fmt.Errorf("the script could not be parsed: %w", err)
	case errors.Is(err, stackeval.ErrNotFound):
		return fmt.Errorf("unknown variable: %w", err)
	case errors.Is(err, stackeval.ErrOutOfRange):
		return fmt.Errorf("input index out of range: %w", err)
	}
	return err
}
