package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Version 由构建时通过 -ldflags 注入
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "stackeval %s\n", Version)
	},
}

// CompareVersions 比较两个版本号，如果v1 < v2返回-1，如果v1 == v2返回0，如果v1 > v2返回1。
// 可以带 v 前缀，缺少的部分按 0 处理。
func CompareVersions(v1, v2 string) (int, error) {
	v1Parts := strings.Split(strings.TrimPrefix(v1, "v"), ".")
	v2Parts := strings.Split(strings.TrimPrefix(v2, "v"), ".")

	for i := 0; i < len(v1Parts) || i < len(v2Parts); i++ {
		var v1Part, v2Part int
		var err error

		if i < len(v1Parts) {
			if v1Part, err = strconv.Atoi(v1Parts[i]); err != nil {
				return 0, fmt.Errorf("版本解析错误 %q: %w", v1, err)
			}
		}
		if i < len(v2Parts) {
			if v2Part, err = strconv.Atoi(v2Parts[i]); err != nil {
				return 0, fmt.Errorf("版本解析错误 %q: %w", v2, err)
			}
		}

		if v1Part < v2Part {
			return -1, nil
		} else if v1Part > v2Part {
			return 1, nil
		}
	}
	return 0, nil
}
