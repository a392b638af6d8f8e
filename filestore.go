package stackeval

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// FileStore 封装了脚本文本的读取和执行轨迹的导出
type FileStore struct {
	Fs       afero.Fs
	BasePath string
}

// NewFileStore 创建一个新的FileStore实例，导出目录在第一次导出时创建
func NewFileStore(fs afero.Fs, basePath string) *FileStore {
	return &FileStore{Fs: fs, BasePath: basePath}
}

// ReadText 读取文本文件并去掉首尾空白，相对路径相对于当前目录
func (fs *FileStore) ReadText(path string) (string, error) {
	data, err := afero.ReadFile(fs.Fs, path)
	if err != nil {
		return "", fmt.Errorf("读取文件失败: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// traceItem 导出的堆栈项
type traceItem struct {
	Hex  string `json:"hex"`
	Kind string `json:"kind"`
	Var  string `json:"var,omitempty"`
}

// traceStep 导出的步骤
type traceStep struct {
	Index  int         `json:"index"`
	Offset int         `json:"offset"`
	Op     string      `json:"op"`
	Main   []traceItem `json:"main"`
	Alt    []traceItem `json:"alt,omitempty"`
	Log    string      `json:"log"`
	Failed bool        `json:"failed,omitempty"`
	Err    string      `json:"error,omitempty"`
}

// trace 导出文件的顶层结构
type trace struct {
	Exported string      `json:"exported"`
	Steps    []traceStep `json:"steps"`
}

// ExportHistory 将历史记录导出为 JSON 执行轨迹，返回写入的文件路径
func (fs *FileStore) ExportHistory(name string, h HistoryReader) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: 无效的导出名称 %q", ErrParse, name)
	}

	out := trace{
		Exported: time.Now().UTC().Format(time.RFC3339),
		Steps:    make([]traceStep, 0, h.Len()),
	}
	for _, step := range h.Steps() {
		out.Steps = append(out.Steps, traceStep{
			Index:  step.Index,
			Offset: step.Op.Offset,
			Op:     step.Op.String(),
			Main:   traceItems(step.Stack.Main),
			Alt:    traceItems(step.Stack.Alt),
			Log:    step.Log,
			Failed: step.Failed,
			Err:    step.Err,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("编码执行轨迹失败: %w", err)
	}

	if err := fs.Fs.MkdirAll(fs.BasePath, 0755); err != nil {
		return "", fmt.Errorf("创建导出目录失败: %w", err)
	}
	path := filepath.Join(fs.BasePath, name+".json")
	if err := afero.WriteFile(fs.Fs, path, data, 0644); err != nil {
		return "", fmt.Errorf("写入执行轨迹失败: %w", err)
	}
	return path, nil
}

func traceItems(items []Item) []traceItem {
	out := make([]traceItem, 0, len(items))
	for _, it := range items {
		out = append(out, traceItem{
			Hex:  hex.EncodeToString(it.Data),
			Kind: it.Kind.String(),
			Var:  it.Var,
		})
	}
	return out
}
