package stackeval

import (
	"bytes"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"
)

// EncodeToBytes 使用 gob 编码将任意数据转换为 []byte
func EncodeToBytes(data interface{}) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := gob.NewEncoder(&buffer)

	if err := encoder.Encode(data); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

// DecodeFromBytes 使用 gob 解码将 []byte 转换为指定的数据结构
func DecodeFromBytes(data []byte, result interface{}) error {
	decoder := gob.NewDecoder(bytes.NewBuffer(data))
	return decoder.Decode(result)
}

// DecodeHex 解码十六进制文本，允许 0x 前缀和任意空白
func DecodeHex(text string) ([]byte, error) {
	s := strings.Join(strings.Fields(text), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: 无效的十六进制文本: %v", ErrParse, err)
	}
	return data, nil
}

// isHex 文本是否由空白分隔的十六进制字节组成：每个词都非空、长度为偶数且只含十六进制字符
func isHex(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		if len(f)%2 != 0 {
			return false
		}
		if _, err := hex.DecodeString(f); err != nil {
			return false
		}
	}
	return true
}

// cloneBytes 复制字节切片，nil 保持为 nil
func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

const (
	logName = "stackeval"
)

// SetLog 按选项配置全局日志：彩色终端输出，设置了 LogDir 时同时写入滚动的 JSON 日志文件
func SetLog(opt *Options) error {
	logLevel, err := logrus.ParseLevel(opt.LogLevel)
	if err != nil {
		return fmt.Errorf("无效的日志级别 %q: %w", opt.LogLevel, err)
	}

	logrus.SetLevel(logLevel)
	logrus.SetOutput(colorable.NewColorableStdout())
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC822,
	})

	if opt.LogDir == "" {
		return nil
	}

	// logrus 的回调钩子
	rotateFileHook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   filepath.Join(opt.LogDir, fmt.Sprintf("%s.log", logName)),
		MaxSize:    50, // 文件最大50M
		MaxBackups: 3,
		MaxAge:     28, // 存储28天
		Level:      logLevel,
		Formatter: &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		},
	})
	if err != nil {
		return fmt.Errorf("初始化文件回调钩子失败: %w", err)
	}
	logrus.AddHook(rotateFileHook)

	return nil
}
