package main

import (
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/qinglongcn/stackeval"
	"github.com/spf13/cobra"
)

var (
	runFlags   contextFlags
	exportName string
)

var runCmd = &cobra.Command{
	Use:   "run [SCRIPT...]",
	Short: "Execute a script to the end and print every step",
	Example: `  stackeval run OP_1 OP_1 OP_ADD
  stackeval run 0101010293
  stackeval run --tx $spend --amount 5000 --file p2pkh.txt`,
	RunE: runCommand,
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().StringVar(&exportName, "export", "", "Export the execution trace as JSON under this name")
}

func runCommand(cmd *cobra.Command, args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	req, err := runFlags.request(app, args)
	if err != nil {
		return err
	}
	ctx, err := app.Context(req)
	if err != nil {
		return bindError(err)
	}

	stepper := app.NewStepper()
	if err := stepper.Bind(ctx); err != nil {
		return err
	}
	state, err := stepper.RunAll()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printHistory(out, stepper.History(), -2)
	fmt.Fprintln(out)
	fmt.Fprintln(out, colorSnapshot(stepper.Stack()))
	printState(out, stepper)

	if exportName != "" {
		path, err := app.Files().ExportHistory(exportName, stepper.History())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "trace written to %s\n", path)
	}

	if state == stackeval.HaltedFailure {
		return fmt.Errorf("script failed: %w", stepper.Err())
	}
	return nil
}

// printHistory 列出全部步骤，cursor 处的步骤加上标记
func printHistory(out io.Writer, h stackeval.HistoryReader, cursor int) {
	for _, step := range h.Steps() {
		marker := "  "
		if step.Index == cursor {
			marker = "> "
		}
		line := stackeval.FormatStep(step)
		if step.Failed {
			line = color.Red.Sprint(line)
		}
		fmt.Fprintln(out, marker+line)
	}
}

// printState 输出状态机的当前状态
func printState(out io.Writer, s *stackeval.Stepper) {
	switch s.State() {
	case stackeval.HaltedSuccess:
		fmt.Fprintln(out, color.Green.Sprint(s.State()))
	case stackeval.HaltedFailure:
		fmt.Fprintf(out, "%s: %v\n", color.Red.Sprint(s.State()), s.Err())
	default:
		fmt.Fprintf(out, "%s (next op %d)\n", s.State(), s.PC())
	}
}
