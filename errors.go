package stackeval

import (
	"errors"
	"fmt"
)

// 错误类型。调用方使用 errors.Is 判断，具体信息通过 fmt.Errorf 的 %w 附加。
var (
	// ErrParse 脚本或交易字节格式错误，运行不会开始
	ErrParse = errors.New("parse error")
	// ErrDeserialization 交易反序列化失败，同时也是 ErrParse
	ErrDeserialization = fmt.Errorf("%w: transaction deserialization", ErrParse)
	// ErrNotBound 在绑定执行上下文之前单步执行
	ErrNotBound = errors.New("stepper not bound")
	// ErrEmptyStack 从空堆栈弹出或读取
	ErrEmptyStack = errors.New("empty stack")
	// ErrOutOfRange 游标跳转或索引越界
	ErrOutOfRange = errors.New("out of range")
	// ErrNotFound 变量引用无法解析
	ErrNotFound = errors.New("not found")
	// ErrNoTransaction 签名类操作码需要交易上下文
	ErrNoTransaction = errors.New("no transaction bound")
)
