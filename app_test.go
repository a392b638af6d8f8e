package stackeval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(t *testing.T) *Options {
	opt := DefaultOptions()
	opt.BuildLogLevel("error")
	opt.BuildVariablesDir(filepath.Join(t.TempDir(), "vars"))
	opt.ExportDir = filepath.Join(t.TempDir(), "traces")
	opt.InputAmount = 1000
	return opt
}

func TestAppOpen(t *testing.T) {
	opt := testOptions(t)
	app, err := Open(opt)
	require.NoError(t, err)

	require.NoError(t, app.Variables().Set("x", []byte{0xaa, 0xbb}))

	ctx, err := app.Context(ContextRequest{Script: "$x OP_SIZE"})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), ctx.InputAmount)

	s := app.NewStepper()
	require.NoError(t, s.Bind(ctx))
	state, err := s.RunAll()
	require.NoError(t, err)
	require.Equal(t, HaltedSuccess, state)

	final := s.Stack()
	require.Len(t, final.Main, 2)
	assert.Equal(t, KindVariable, final.Main[0].Kind)
	assert.Equal(t, []byte{0x02}, final.Main[1].Data)

	path, err := app.Files().ExportHistory("size", s.History())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(opt.ExportDir, "size.json"), path)
	_, err = os.Stat(path)
	assert.NoError(t, err)

	require.NoError(t, app.Close())

	// 变量在重新打开后仍然存在
	app, err = Open(opt)
	require.NoError(t, err)
	defer app.Close()

	value, err := app.Binder().ResolveVariable("x")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, value)
}

func TestAppSessions(t *testing.T) {
	opt := testOptions(t)
	opt.BuildVariablesDir("")
	opt.MaxSteps = 2

	app, err := Open(opt)
	require.NoError(t, err)
	defer app.Close()

	ctx, err := app.Context(ContextRequest{Script: "OP_1 OP_2 OP_ADD", InputAmount: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(7), ctx.InputAmount)

	id := app.Sessions().Open()
	require.NoError(t, app.Sessions().With(id, func(s *Stepper) error {
		require.NoError(t, s.Bind(ctx))
		state, err := s.RunAll()
		require.NoError(t, err)
		assert.Equal(t, HaltedFailure, state)
		// 两步执行成功，第三步因超过最大步数记为失败
		require.Equal(t, 3, s.History().Len())
		last, _ := s.History().Last()
		assert.True(t, last.Failed)
		return nil
	}))
	require.NoError(t, app.Sessions().Close(id))
}

func TestAppOpenErrors(t *testing.T) {
	opt := testOptions(t)
	opt.Network = "moon"
	_, err := Open(opt)
	assert.Error(t, err)

	opt = testOptions(t)
	opt.LogLevel = "loud"
	_, err = Open(opt)
	assert.Error(t, err)
}
