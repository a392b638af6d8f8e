package stackeval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// scriptFlagNames 配置中可用的脚本验证标志
var scriptFlagNames = map[string]txscript.ScriptFlags{
	"minimaldata":              txscript.ScriptVerifyMinimalData,
	"strictencoding":           txscript.ScriptVerifyStrictEncoding,
	"dersignatures":            txscript.ScriptVerifyDERSignatures,
	"lows":                     txscript.ScriptVerifyLowS,
	"nulldummy":                txscript.ScriptStrictMultiSig,
	"nullfail":                 txscript.ScriptVerifyNullFail,
	"checklocktimeverify":      txscript.ScriptVerifyCheckLockTimeVerify,
	"checksequenceverify":      txscript.ScriptVerifyCheckSequenceVerify,
	"discourageupgradablenops": txscript.ScriptDiscourageUpgradableNops,
	"minimalif":                txscript.ScriptVerifyMinimalIf,
	"sigpushonly":              txscript.ScriptVerifySigPushOnly,
}

// networks 支持的网络参数
var networks = map[string]*chaincfg.Params{
	"mainnet":  &chaincfg.MainNetParams,
	"testnet3": &chaincfg.TestNet3Params,
	"regtest":  &chaincfg.RegressionNetParams,
	"signet":   &chaincfg.SigNetParams,
	"simnet":   &chaincfg.SimNetParams,
}

// Options 运行时选项，可以从 TOML 文件加载
type Options struct {
	LogLevel     string   `toml:"log_level"`     // 日志级别
	LogDir       string   `toml:"log_dir"`       // 日志目录，为空时只输出到终端
	VariablesDir string   `toml:"variables_dir"` // 变量数据库目录，为空时使用内存数据库
	ExportDir    string   `toml:"export_dir"`    // 执行轨迹导出目录
	Network      string   `toml:"network"`       // 地址解析使用的网络
	Flags        []string `toml:"flags"`         // 脚本验证标志
	InputAmount  int64    `toml:"input_amount"`  // 默认的被花费输出金额
	MaxSteps     int      `toml:"max_steps"`     // 单次执行的最大步数，0 表示不限制
}

// DefaultOptions 默认选项
func DefaultOptions() *Options {
	return &Options{
		LogLevel:  logrus.InfoLevel.String(),
		ExportDir: "traces",
		Network:   "mainnet",
		Flags: []string{
			"strictencoding",
			"dersignatures",
			"lows",
			"nulldummy",
			"nullfail",
			"checklocktimeverify",
			"checksequenceverify",
		},
	}
}

// LoadOptions 读取 TOML 配置文件，未出现的字段保持默认值
func LoadOptions(fs afero.Fs, path string) (*Options, error) {
	opt := DefaultOptions()

	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	if _, err := toml.NewDecoder(file).Decode(opt); err != nil {
		return nil, fmt.Errorf("%w: 配置文件 %s: %v", ErrParse, path, err)
	}
	if err := opt.CheckAndSetOptions(); err != nil {
		return nil, err
	}
	return opt, nil
}

// BuildLogLevel 设置日志级别
func (opt *Options) BuildLogLevel(level string) {
	if level == "" {
		return
	}
	opt.LogLevel = level
}

// BuildVariablesDir 设置变量数据库目录
func (opt *Options) BuildVariablesDir(path string) {
	if path == "" {
		return
	}
	opt.VariablesDir = path
}

// BuildFlags 设置脚本验证标志
func (opt *Options) BuildFlags(flags ...string) {
	opt.Flags = flags
}

// BuildInputAmount 设置默认的被花费输出金额
func (opt *Options) BuildInputAmount(amount int64) {
	opt.InputAmount = amount
}

// CheckAndSetOptions 检查并规范化选项
func (opt *Options) CheckAndSetOptions() error {
	if _, err := logrus.ParseLevel(opt.LogLevel); err != nil {
		return fmt.Errorf("无效的日志级别 %q", opt.LogLevel)
	}

	opt.Network = strings.ToLower(opt.Network)
	if _, ok := networks[opt.Network]; !ok {
		return fmt.Errorf("未知的网络 %q", opt.Network)
	}

	for i, name := range opt.Flags {
		opt.Flags[i] = strings.ToLower(name)
	}
	if _, err := opt.ScriptFlags(); err != nil {
		return err
	}

	if opt.InputAmount < 0 {
		return fmt.Errorf("输入金额不能为负数: %d", opt.InputAmount)
	}
	if opt.MaxSteps < 0 {
		return fmt.Errorf("最大步数不能为负数: %d", opt.MaxSteps)
	}
	return nil
}

// ScriptFlags 把标志名转换为 txscript.ScriptFlags
func (opt *Options) ScriptFlags() (txscript.ScriptFlags, error) {
	var flags txscript.ScriptFlags
	for _, name := range opt.Flags {
		f, ok := scriptFlagNames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("未知的脚本标志 %q，可用: %s", name, strings.Join(ScriptFlagNames(), ", "))
		}
		flags |= f
	}
	return flags, nil
}

// NetParams 返回网络参数，未知网络返回主网
func (opt *Options) NetParams() *chaincfg.Params {
	if params, ok := networks[strings.ToLower(opt.Network)]; ok {
		return params
	}
	return &chaincfg.MainNetParams
}

// ScriptFlagNames 按字母序返回所有可用的标志名
func ScriptFlagNames() []string {
	names := make([]string, 0, len(scriptFlagNames))
	for name := range scriptFlagNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
