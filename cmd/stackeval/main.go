package main

import (
	"fmt"
	"os"

	"github.com/qinglongcn/stackeval"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	varsDir    string
)

var rootCmd = &cobra.Command{
	Use:   "stackeval",
	Short: "Step through Bitcoin scripts one operation at a time",
	Long: "stackeval executes a Bitcoin script one operation at a time, records the main and alt\n" +
		"stacks after every step and lets you move back and forth through the recorded history.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&varsDir, "vars-dir", "", "Directory of the persistent variable store (in-memory when empty)")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(updateCmd)
}

// loadOptions 默认选项，配置文件和命令行参数依次覆盖
func loadOptions() (*stackeval.Options, error) {
	opt := stackeval.DefaultOptions()
	if configPath != "" {
		var err error
		if opt, err = stackeval.LoadOptions(afero.NewOsFs(), configPath); err != nil {
			return nil, err
		}
	}
	opt.BuildLogLevel(logLevel)
	opt.BuildVariablesDir(varsDir)
	return opt, nil
}

// openApp 按命令行参数打开 App
func openApp() (*stackeval.App, error) {
	opt, err := loadOptions()
	if err != nil {
		return nil, err
	}
	return stackeval.Open(opt)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
