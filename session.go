package stackeval

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// session 一个独立的调试会话
type session struct {
	mu      sync.Mutex
	stepper *Stepper
}

// Sessions 并发调试会话的注册表。每个会话持有自己的 Stepper，
// 同一会话上的操作串行执行，不同会话之间互不影响。
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*session
	newEval  func() Evaluator
	opts     []StepperOption
}

// NewSessions 创建会话注册表，newEval 为每个会话创建独立的评估器
func NewSessions(newEval func() Evaluator, opts ...StepperOption) *Sessions {
	return &Sessions{
		sessions: make(map[string]*session),
		newEval:  newEval,
		opts:     opts,
	}
}

// Open 新建一个处于 Idle 状态的会话，返回会话ID
func (s *Sessions) Open() string {
	id := uuid.NewString()
	opts := append([]StepperOption{WithLogger(logrus.WithField("session", id))}, s.opts...)

	s.mu.Lock()
	s.sessions[id] = &session{stepper: NewStepper(s.newEval(), opts...)}
	s.mu.Unlock()

	logrus.WithField("session", id).Debug("打开会话")
	return id
}

// With 在会话锁内对其 Stepper 执行 fn
func (s *Sessions) With(id string, fn func(*Stepper) error) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: 会话 %s", ErrNotFound, id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.stepper)
}

// Close 关闭会话
func (s *Sessions) Close(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: 会话 %s", ErrNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// List 返回全部会话ID
func (s *Sessions) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len 返回会话数量
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
