package stackeval

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// VariableStore 只读的变量查询接口，Binder 通过它解析 $name
type VariableStore interface {
	// Get 返回变量的值，变量不存在时 ok 为 false
	Get(name string) (value []byte, ok bool, err error)
}

// Variables 可写的变量存储
type Variables interface {
	VariableStore
	Set(name string, value []byte) error
	Delete(name string) error
	List() ([]VariableRecord, error)
	Close() error
}

// VariableRecord 一个命名变量
type VariableRecord struct {
	Name    string // 变量名
	Value   []byte // 变量值
	Updated int64  // 最后更新时间（Unix 秒）
}

// validVariableName 变量名不能为空，也不能包含空白
func validVariableName(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: 无效的变量名 %q", ErrParse, name)
	}
	return nil
}

// MemoryVariables 内存中的变量存储，可被多个 goroutine 并发使用
type MemoryVariables struct {
	mu   sync.RWMutex
	vars map[string]VariableRecord
}

// NewMemoryVariables 创建内存变量存储
func NewMemoryVariables() *MemoryVariables {
	return &MemoryVariables{vars: make(map[string]VariableRecord)}
}

// Get 返回变量的值
func (m *MemoryVariables) Get(name string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.vars[name]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(rec.Value), true, nil
}

// Set 设置变量
func (m *MemoryVariables) Set(name string, value []byte) error {
	if err := validVariableName(name); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars[name] = VariableRecord{Name: name, Value: cloneBytes(value), Updated: time.Now().Unix()}
	return nil
}

// Delete 删除变量，变量不存在时返回 ErrNotFound
func (m *MemoryVariables) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.vars[name]; !ok {
		return fmt.Errorf("%w: 变量 %q", ErrNotFound, name)
	}
	delete(m.vars, name)
	return nil
}

// List 按名称排序返回全部变量
func (m *MemoryVariables) List() ([]VariableRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]VariableRecord, 0, len(m.vars))
	for _, rec := range m.vars {
		rec.Value = cloneBytes(rec.Value)
		list = append(list, rec)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// Close 内存存储无需关闭
func (m *MemoryVariables) Close() error {
	return nil
}

// varPrefix badger 中变量键的前缀
var varPrefix = []byte("var/")

// BadgerVariables 基于 badger 的持久化变量存储
type BadgerVariables struct {
	db *badger.DB
}

// OpenBadgerVariables 打开变量数据库，path 为空时使用内存模式
func OpenBadgerVariables(path string) (*BadgerVariables, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("创建变量目录失败: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil) // 不输出 badger 自身的日志

	db, err := openDB(path, opts)
	if err != nil {
		return nil, err
	}
	return &BadgerVariables{db: db}, nil
}

func varKey(name string) []byte {
	return append(append([]byte{}, varPrefix...), name...)
}

// Get 返回变量的值
func (b *BadgerVariables) Get(name string) ([]byte, bool, error) {
	var rec VariableRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(varKey(name))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return DecodeFromBytes(val, &rec)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取变量 %q 失败: %w", name, err)
	}
	return rec.Value, true, nil
}

// Set 设置变量
func (b *BadgerVariables) Set(name string, value []byte) error {
	if err := validVariableName(name); err != nil {
		return err
	}

	val, err := EncodeToBytes(VariableRecord{Name: name, Value: value, Updated: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("编码变量失败: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(varKey(name), val)
	})
}

// Delete 删除变量，变量不存在时返回 ErrNotFound
func (b *BadgerVariables) Delete(name string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		key := varKey(name)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: 变量 %q", ErrNotFound, name)
			}
			return err
		}
		return txn.Delete(key)
	})
}

// List 按名称排序返回全部变量
func (b *BadgerVariables) List() ([]VariableRecord, error) {
	var list []VariableRecord
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = varPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec VariableRecord
			if err := DecodeFromBytes(val, &rec); err != nil {
				return err
			}
			list = append(list, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("列出变量失败: %w", err)
	}
	return list, nil
}

// Close 关闭数据库
func (b *BadgerVariables) Close() error {
	return b.db.Close()
}

// openDB 打开数据库，如果因为存在 LOCK 文件打开失败，执行 retry 确保打开
func openDB(path string, opts badger.Options) (*badger.DB, error) {
	db, err := badger.Open(opts)
	if err != nil && path != "" && strings.Contains(err.Error(), "LOCK") {
		db, err = retry(path, opts)
		if err != nil {
			return nil, fmt.Errorf("无法解锁数据库: %w", err)
		}
		return db, nil
	} else if err != nil {
		return nil, fmt.Errorf("打开变量数据库失败: %w", err)
	}
	return db, nil
}

// retry 删除残留的 LOCK 文件后重新打开
func retry(path string, opts badger.Options) (*badger.DB, error) {
	lockPath := filepath.Join(path, "LOCK")

	// 检查锁文件是否可以安全删除
	if err := checkLock(lockPath); err != nil {
		return nil, err
	}

	if err := os.Remove(lockPath); err != nil {
		return nil, fmt.Errorf("移除 LOCK: %w", err)
	}

	var db *badger.DB
	var err error
	for i := 0; i < 3; i++ {
		db, err = badger.Open(opts)
		if err == nil {
			return db, nil
		}
		logrus.Errorf("打开数据库失败，%d 秒后重试", i+1)
		time.Sleep(time.Duration(i+1) * time.Second)
	}

	return nil, fmt.Errorf("打开数据库失败: %w", err)
}

// checkLock 锁文件没有被其他进程持有时才允许删除
func checkLock(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开 LOCK 文件失败: %w", err)
	}
	defer file.Close()

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return fmt.Errorf("数据库正被其他进程使用: %w", err)
	}
	defer syscall.Flock(int(file.Fd()), syscall.LOCK_UN)

	return nil
}
