package main

import (
	"fmt"
	"strings"

	"github.com/qinglongcn/stackeval"
	"github.com/spf13/cobra"
)

var infoFile string

var infoCmd = &cobra.Command{
	Use:   "info [SCRIPT...]",
	Short: "Classify a script without executing it",
	RunE: withApp(func(app *stackeval.App, cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if infoFile != "" {
			var err error
			if text, err = app.Files().ReadText(infoFile); err != nil {
				return err
			}
		}

		ctx, err := app.Context(stackeval.ContextRequest{Script: text})
		if err != nil {
			return bindError(err)
		}

		info := stackeval.AnalyzeScript(ctx.Script, app.Options().NetParams())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Class:\t\t%s\n", info.Class)
		fmt.Fprintf(out, "Standard:\t%t\n", info.Standard)
		if info.Reason != "" {
			fmt.Fprintf(out, "Reason:\t\t%s\n", info.Reason)
		}
		fmt.Fprintf(out, "Ops:\t\t%d\n", info.Ops)
		fmt.Fprintf(out, "SigOps:\t\t%d\n", info.SigOps)
		if info.Required > 0 {
			fmt.Fprintf(out, "Required:\t%d\n", info.Required)
		}
		for _, addr := range info.Addresses {
			fmt.Fprintf(out, "Address:\t%s\n", addr)
		}
		fmt.Fprintf(out, "Hex:\t\t%x\n", ctx.Script.Raw)
		fmt.Fprintf(out, "Disasm:\t\t%s\n", info.Disasm)
		return nil
	}),
}

func init() {
	infoCmd.Flags().StringVarP(&infoFile, "file", "f", "", "Read the script from a file")
}
