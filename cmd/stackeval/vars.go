package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/gookit/color"
	"github.com/qinglongcn/stackeval"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	varString   bool
	keyMnemonic string
	keyPassword string
	keyIndex    uint32
)

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "Manage named variables usable as $name in scripts",
}

var varsSetCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Set a variable from hex (or text with --string)",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(app *stackeval.App, cmd *cobra.Command, args []string) error {
		value := []byte(args[1])
		if !varString {
			var err error
			if value, err = stackeval.DecodeHex(args[1]); err != nil {
				return err
			}
		}
		if app.Options().VariablesDir == "" {
			logrus.Warn("变量保存在内存中，进程退出后丢失，使用 --vars-dir 持久化")
		}
		return app.Variables().Set(args[0], value)
	}),
}

var varsGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print a variable as hex",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(app *stackeval.App, cmd *cobra.Command, args []string) error {
		value, err := app.Binder().ResolveVariable(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(value))
		return nil
	}),
}

var varsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all variables",
	Args:  cobra.NoArgs,
	RunE: withApp(func(app *stackeval.App, cmd *cobra.Command, args []string) error {
		list, err := app.Variables().List()
		if err != nil {
			return err
		}
		for _, rec := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
				color.Magenta.Sprint("$"+rec.Name),
				stackeval.Describe(stackeval.RawItem(rec.Value)),
				time.Unix(rec.Updated, 0).Format("2006-01-02 15:04:05"))
		}
		return nil
	}),
}

var varsRmCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Delete a variable",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(app *stackeval.App, cmd *cobra.Command, args []string) error {
		return app.Variables().Delete(args[0])
	}),
}

var varsKeygenCmd = &cobra.Command{
	Use:   "keygen NAME",
	Short: "Create a key pair as $NAME_priv, $NAME_pub and $NAME_pkh",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(app *stackeval.App, cmd *cobra.Command, args []string) error {
		params := app.Options().NetParams()

		var info *stackeval.KeyInfo
		var err error
		if keyMnemonic != "" {
			key, derr := stackeval.DeriveKey(stackeval.SeedFromMnemonic(keyMnemonic, keyPassword), keyIndex)
			if derr != nil {
				return derr
			}
			info, err = stackeval.StoreKey(app.Variables(), args[0], key, params)
		} else {
			info, err = stackeval.GenerateKey(app.Variables(), args[0], params)
		}
		if err != nil {
			return err
		}
		printKey(cmd.OutOrStdout(), info)
		return nil
	}),
}

var varsImportCmd = &cobra.Command{
	Use:   "import NAME WIF",
	Short: "Import a WIF private key as $NAME_priv, $NAME_pub and $NAME_pkh",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(app *stackeval.App, cmd *cobra.Command, args []string) error {
		info, err := stackeval.ImportWIF(app.Variables(), args[0], args[1], app.Options().NetParams())
		if err != nil {
			return err
		}
		printKey(cmd.OutOrStdout(), info)
		return nil
	}),
}

func init() {
	varsSetCmd.Flags().BoolVar(&varString, "string", false, "Store VALUE as UTF-8 text instead of hex")
	varsKeygenCmd.Flags().StringVar(&keyMnemonic, "mnemonic", "", "Derive the key from a mnemonic instead of generating it")
	varsKeygenCmd.Flags().StringVar(&keyPassword, "password", "", "Mnemonic password")
	varsKeygenCmd.Flags().Uint32Var(&keyIndex, "index", 0, "Hardened child index m/INDEX'")
	varsCmd.AddCommand(varsSetCmd, varsGetCmd, varsListCmd, varsRmCmd, varsKeygenCmd, varsImportCmd)
}

// printKey 输出生成的变量名和地址
func printKey(out io.Writer, info *stackeval.KeyInfo) {
	fmt.Fprintf(out, "%s\t%x\n", color.Magenta.Sprintf("$%s_pub", info.Name), info.PubKey)
	fmt.Fprintf(out, "%s\t%x\n", color.Magenta.Sprintf("$%s_pkh", info.Name), info.PubKeyHash)
	fmt.Fprintf(out, "address\t%s\n", info.Address)
	fmt.Fprintf(out, "wif\t%s\n", info.WIF)
}

// withApp 打开 App 执行 fn，结束后关闭
func withApp(fn func(*stackeval.App, *cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := openApp()
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(app, cmd, args)
	}
}
