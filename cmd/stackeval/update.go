package main

import (
	"crypto"
	"fmt"
	"io"
	"os"

	"github.com/inconshreveable/go-update"
	"github.com/qinglongcn/stackeval"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	updateChecksum string
	updateVersion  string
	updateForce    bool
)

var updateCmd = &cobra.Command{
	Use:   "update BINARY",
	Short: "Replace the running stackeval executable with a new build",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkUpgrade(Version, updateVersion, updateForce); err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if err := selfUpdate(f, "", updateChecksum); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "updated, restart stackeval to use the new version")
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateChecksum, "sha256", "", "Expected SHA-256 of the new binary in hex")
	updateCmd.Flags().StringVar(&updateVersion, "version", "", "Version of the new binary, refused unless newer than the running one")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "Allow replacing with an older or equal version")
}

// checkUpgrade 拒绝降级：新版本必须比当前版本新。开发构建或未给出新版本时不检查。
func checkUpgrade(current, next string, force bool) error {
	if force || next == "" || current == "dev" {
		return nil
	}
	cmp, err := CompareVersions(next, current)
	if err != nil {
		return err
	}
	if cmp <= 0 {
		return fmt.Errorf("version %s is not newer than %s, use --force to replace anyway", next, current)
	}
	return nil
}

// selfUpdate 用 go-update 替换可执行文件，target 为空时替换当前程序
func selfUpdate(r io.Reader, target, checksum string) error {
	opts := update.Options{TargetPath: target}
	if checksum != "" {
		sum, err := stackeval.DecodeHex(checksum)
		if err != nil {
			return err
		}
		opts.Hash = crypto.SHA256
		opts.Checksum = sum
	}

	if err := update.Apply(r, opts); err != nil {
		// 回滚到之前的版本
		if rerr := update.RollbackError(err); rerr != nil {
			logrus.Errorf("[selfUpdate] 回滚到之前版本失败: %v", rerr)
		}
		return fmt.Errorf("更新失败: %w", err)
	}
	return nil
}
