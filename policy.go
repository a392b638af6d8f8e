package stackeval

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

const (
	// maxStandardMultiSigKeys 是多重签名输出脚本中允许的最大公钥数量，以便将其视为标准。
	maxStandardMultiSigKeys = 3
)

// ScriptInfo 脚本的静态分析结果
type ScriptInfo struct {
	Class     string   // 脚本类型，如 pubkeyhash、multisig、nonstandard
	Standard  bool     // 是否为标准输出脚本
	Reason    string   // 不标准的原因
	Disasm    string   // 反汇编文本
	Ops       int      // 操作数量
	SigOps    int      // 签名操作数量（非精确计数）
	Addresses []string // 脚本支付到的地址
	Required  int      // 花费所需的签名数量
}

// AnalyzeScript 对脚本做静态分析，不执行脚本
func AnalyzeScript(script *Script, params *chaincfg.Params) ScriptInfo {
	class, addrs, required, _ := txscript.ExtractPkScriptAddrs(script.Raw, params)

	info := ScriptInfo{
		Class:    class.String(),
		Disasm:   script.Disasm(),
		Ops:      script.Len(),
		SigOps:   txscript.GetSigOpCount(script.Raw),
		Required: required,
	}
	for _, addr := range addrs {
		info.Addresses = append(info.Addresses, addr.EncodeAddress())
	}

	if err := checkPkScriptStandard(script.Raw, class); err != nil {
		info.Reason = err.Error()
	} else {
		info.Standard = true
	}
	return info
}

// checkPkScriptStandard 对输出脚本执行一系列检查，以确保它是“标准”脚本。
// 标准脚本是一种可识别的形式，对于多重签名脚本，仅包含 1 到 maxStandardMultiSigKeys 个公钥。
func checkPkScriptStandard(pkScript []byte, scriptClass txscript.ScriptClass) error {
	switch scriptClass {
	case txscript.MultiSigTy:
		numPubKeys, numSigs, err := txscript.CalcMultiSigStats(pkScript)
		if err != nil {
			return fmt.Errorf("multi-signature script parse failure: %v", err)
		}

		// 标准多重签名脚本必须包含 1 到 maxStandardMultiSigKeys 个公钥。
		if numPubKeys < 1 {
			return fmt.Errorf("multi-signature script with no pubkeys")
		}
		if numPubKeys > maxStandardMultiSigKeys {
			return fmt.Errorf("multi-signature script with %d public keys which is more than the allowed max of %d", numPubKeys, maxStandardMultiSigKeys)
		}

		// 至少有 1 个签名，且签名数量不得多于可用公钥。
		if numSigs < 1 {
			return fmt.Errorf("multi-signature script with no signatures")
		}
		if numSigs > numPubKeys {
			return fmt.Errorf("multi-signature script with %d signatures which is more than the available %d public keys", numSigs, numPubKeys)
		}

	case txscript.NonStandardTy:
		return fmt.Errorf("non-standard script form")
	}

	return nil
}
