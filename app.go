package stackeval

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"go.uber.org/fx"
)

// App 组装变量存储、上下文绑定、会话和文件存储，供命令行和其他展示层使用
type App struct {
	ctx      context.Context      // 全局上下文
	opt      *Options             // 选项配置
	flags    txscript.ScriptFlags // 脚本验证标志
	vars     Variables            // 变量存储
	binder   *Binder              // 上下文绑定
	sessions *Sessions            // 调试会话
	files    *FileStore           // 文件存储
	app      *fx.App
}

// Open 按选项创建并启动 App，使用完毕后需要调用 Close
func Open(opt *Options) (*App, error) {
	// 1. 检查并设置选项
	if err := opt.CheckAndSetOptions(); err != nil {
		return nil, err
	}
	// 2. 日志
	if err := SetLog(opt); err != nil {
		return nil, err
	}
	flags, err := opt.ScriptFlags()
	if err != nil {
		return nil, err
	}

	a := &App{
		ctx:   context.Background(),
		opt:   opt,
		flags: flags,
	}

	// fx 配置项
	opts := []fx.Option{
		fx.NopLogger,
		fx.Supply(opt),
		fx.Provide(
			afero.NewOsFs,  // 文件系统
			NewVariablesFx, // 变量存储
			NewBinder,      // 上下文绑定
			NewSessionsFx,  // 调试会话
			NewFileStoreFx, // 文件存储
		),
		fx.Populate(
			&a.vars,
			&a.binder,
			&a.sessions,
			&a.files,
		),
	}
	a.app = fx.New(opts...)
	if err := a.app.Err(); err != nil {
		return nil, fmt.Errorf("组装服务失败: %w", err)
	}
	if err := a.app.Start(a.ctx); err != nil {
		return nil, fmt.Errorf("启动服务失败: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"variables": opt.VariablesDir,
		"network":   opt.Network,
	}).Debug("stackeval 已启动")
	return a, nil
}

// Close 停止服务并关闭变量数据库
func (a *App) Close() error {
	return a.app.Stop(a.ctx)
}

// Options 返回选项
func (a *App) Options() *Options {
	return a.opt
}

// Variables 返回变量存储
func (a *App) Variables() Variables {
	return a.vars
}

// Binder 返回上下文绑定
func (a *App) Binder() *Binder {
	return a.binder
}

// Sessions 返回调试会话注册表
func (a *App) Sessions() *Sessions {
	return a.sessions
}

// Files 返回文件存储
func (a *App) Files() *FileStore {
	return a.files
}

// Evaluator 按配置的脚本标志创建新的评估器
func (a *App) Evaluator() *ScriptEngine {
	return NewScriptEngine(a.flags)
}

// NewStepper 创建使用新评估器的 Stepper
func (a *App) NewStepper() *Stepper {
	return NewStepper(a.Evaluator(), WithMaxSteps(a.opt.MaxSteps))
}

// Context 构建执行上下文，未指定输入金额时使用配置的默认值
func (a *App) Context(req ContextRequest) (*ExecutionContext, error) {
	if req.InputAmount == 0 {
		req.InputAmount = a.opt.InputAmount
	}
	return a.binder.Context(req)
}

type NewVariablesInput struct {
	fx.In

	Opt *Options // 选项配置
}

type NewVariablesOutput struct {
	fx.Out

	Vars  Variables     // 可写的变量存储
	Store VariableStore // Binder 使用的只读视图
}

// NewVariablesFx 打开 badger 变量存储，停止时关闭
func NewVariablesFx(lc fx.Lifecycle, input NewVariablesInput) (out NewVariablesOutput, err error) {
	vars, err := OpenBadgerVariables(input.Opt.VariablesDir)
	if err != nil {
		logrus.Errorf("[NewVariablesFx] 打开变量存储失败:\t%v", err)
		return out, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return vars.Close()
		},
	})

	out.Vars = vars
	out.Store = vars
	return out, nil
}

type NewSessionsInput struct {
	fx.In

	Opt *Options // 选项配置
}

// NewSessionsFx 创建会话注册表，每个会话使用按配置标志创建的评估器
func NewSessionsFx(input NewSessionsInput) (*Sessions, error) {
	flags, err := input.Opt.ScriptFlags()
	if err != nil {
		return nil, err
	}
	newEval := func() Evaluator {
		return NewScriptEngine(flags)
	}
	return NewSessions(newEval, WithMaxSteps(input.Opt.MaxSteps)), nil
}

type NewFileStoreInput struct {
	fx.In

	Fs  afero.Fs // 文件系统
	Opt *Options // 选项配置
}

// NewFileStoreFx 在导出目录上创建文件存储
func NewFileStoreFx(input NewFileStoreInput) *FileStore {
	return NewFileStore(input.Fs, input.Opt.ExportDir)
}
