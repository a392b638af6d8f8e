package stackeval

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAddSessions() *Sessions {
	return NewSessions(func() Evaluator { return addEvaluator{} })
}

func TestSessions(t *testing.T) {
	sessions := newAddSessions()
	assert.Equal(t, 0, sessions.Len())

	a := sessions.Open()
	b := sessions.Open()
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, sessions.Len())
	assert.ElementsMatch(t, []string{a, b}, sessions.List())

	err := sessions.With(a, func(s *Stepper) error {
		assert.Equal(t, Idle, s.State())
		bindRaw(t, s, "0101010293")
		_, err := s.RunAll()
		return err
	})
	require.NoError(t, err)

	// 会话之间互不影响
	require.NoError(t, sessions.With(b, func(s *Stepper) error {
		assert.Equal(t, Idle, s.State())
		assert.Equal(t, 0, s.History().Len())
		return nil
	}))
	require.NoError(t, sessions.With(a, func(s *Stepper) error {
		assert.Equal(t, HaltedSuccess, s.State())
		return nil
	}))

	// fn 的错误原样返回
	boom := errors.New("boom")
	assert.Equal(t, boom, sessions.With(a, func(*Stepper) error { return boom }))

	require.NoError(t, sessions.Close(a))
	assert.Equal(t, []string{b}, sessions.List())

	err = sessions.With(a, func(*Stepper) error { return nil })
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(sessions.Close(a), ErrNotFound))
}

func TestSessionsMaxSteps(t *testing.T) {
	sessions := NewSessions(func() Evaluator { return addEvaluator{} }, WithMaxSteps(1))
	id := sessions.Open()

	require.NoError(t, sessions.With(id, func(s *Stepper) error {
		bindRaw(t, s, "0101010293")
		state, err := s.RunAll()
		require.NoError(t, err)
		assert.Equal(t, HaltedFailure, state)
		assert.True(t, errors.Is(s.Err(), ErrOutOfRange))
		assert.Equal(t, 2, s.History().Len())
		return nil
	}))
}

func TestSessionsConcurrent(t *testing.T) {
	sessions := newAddSessions()

	const n = 16
	ids := make([]string, n)
	for i := range ids {
		ids[i] = sessions.Open()
	}

	raw, err := DecodeHex("0101010293")
	require.NoError(t, err)
	script, err := ParseScript(raw)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, n*3)
	for _, id := range ids {
		id := id
		wg.Add(2)
		// 同一会话上的两个 goroutine 竞争执行
		for j := 0; j < 2; j++ {
			go func(first bool) {
				defer wg.Done()
				if first {
					errs <- sessions.With(id, func(s *Stepper) error {
						return s.Bind(&ExecutionContext{Script: script})
					})
				}
				errs <- sessions.With(id, func(s *Stepper) error {
					if s.State() == Idle {
						return nil
					}
					_, err := s.RunAll()
					return err
				})
			}(j == 0)
		}
	}
	go func() {
		wg.Wait()
		close(errs)
	}()
	for err := range errs {
		require.NoError(t, err)
	}

	for _, id := range ids {
		require.NoError(t, sessions.With(id, func(s *Stepper) error {
			_, err := s.RunAll()
			require.NoError(t, err)
			assert.Equal(t, HaltedSuccess, s.State())
			assert.Equal(t, 3, s.History().Len())
			return nil
		}))
	}
}
