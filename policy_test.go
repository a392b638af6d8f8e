package stackeval

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckPkScriptStandard 测试 checkPkScriptStandard API。
func TestCheckPkScriptStandard(t *testing.T) {
	var pubKeys [][]byte
	for i := 0; i < 4; i++ {
		pk, err := btcec.NewPrivateKey()
		if err != nil {
			t.Fatalf("TestCheckPkScriptStandard NewPrivateKey failed: %v", err)
		}
		pubKeys = append(pubKeys, pk.PubKey().SerializeCompressed())
	}

	tests := []struct {
		name       string // 测试描述。
		script     *txscript.ScriptBuilder
		isStandard bool
	}{
		{
			"key1 and key2",
			txscript.NewScriptBuilder().AddOp(txscript.OP_2).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_2).AddOp(txscript.OP_CHECKMULTISIG),
			true,
		},
		{
			"key1 or key2",
			txscript.NewScriptBuilder().AddOp(txscript.OP_1).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_2).AddOp(txscript.OP_CHECKMULTISIG),
			true,
		},
		{
			"escrow",
			txscript.NewScriptBuilder().AddOp(txscript.OP_2).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddData(pubKeys[2]).
				AddOp(txscript.OP_3).AddOp(txscript.OP_CHECKMULTISIG),
			true,
		},
		{
			"one of four",
			txscript.NewScriptBuilder().AddOp(txscript.OP_1).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddData(pubKeys[2]).AddData(pubKeys[3]).
				AddOp(txscript.OP_4).AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed1",
			txscript.NewScriptBuilder().AddOp(txscript.OP_3).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_2).AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed2",
			txscript.NewScriptBuilder().AddOp(txscript.OP_2).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_3).AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed3",
			txscript.NewScriptBuilder().AddOp(txscript.OP_0).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_2).AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed4",
			txscript.NewScriptBuilder().AddOp(txscript.OP_1).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_0).AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed5",
			txscript.NewScriptBuilder().AddOp(txscript.OP_1).
				AddData(pubKeys[0]).AddData(pubKeys[1]).
				AddOp(txscript.OP_CHECKMULTISIG),
			false,
		},
		{
			"malformed6",
			txscript.NewScriptBuilder().AddOp(txscript.OP_1).
				AddData(pubKeys[0]).AddData(pubKeys[1]),
			false,
		},
	}

	for _, test := range tests {
		script, err := test.script.Script()
		if err != nil {
			t.Fatalf("TestCheckPkScriptStandard test '%s' 失败：%v", test.name, err)
		}
		// 脚本未解析时 GetScriptClass 返回 NonStandardTy
		scriptClass := txscript.GetScriptClass(script)
		got := checkPkScriptStandard(script, scriptClass)
		if (test.isStandard && got != nil) || (!test.isStandard && got == nil) {
			t.Fatalf("TestCheckPkScriptStandard test '%s' 失败: %v", test.name, got)
		}
	}
}

// testPrivKey 测试用的固定私钥
func testPrivKey(t *testing.T) *btcec.PrivateKey {
	privKeyBytes, err := hex.DecodeString("22a47fa09a223f2aa079edf85a7c2" +
		"d4f8720ee63e502ee2869afab7de234b80c")
	require.NoError(t, err)

	privKey, _ := btcec.PrivKeyFromBytes(privKeyBytes)
	return privKey
}

func TestAnalyzeScriptPayToPubKeyHash(t *testing.T) {
	pubKeyHash := btcutil.Hash160(testPrivKey(t).PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, &chaincfg.MainNetParams)
	require.NoError(t, err)

	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	script, err := ParseScript(pkScript)
	require.NoError(t, err)

	info := AnalyzeScript(script, &chaincfg.MainNetParams)
	assert.Equal(t, "pubkeyhash", info.Class)
	assert.True(t, info.Standard)
	assert.Empty(t, info.Reason)
	assert.Equal(t, 5, info.Ops)
	assert.Equal(t, 1, info.SigOps)
	assert.Equal(t, 1, info.Required)
	assert.Equal(t, []string{addr.EncodeAddress()}, info.Addresses)
	assert.Contains(t, info.Disasm, "OP_DUP OP_HASH160")
}

func TestAnalyzeScriptMultiSig(t *testing.T) {
	var pubKeys [][]byte
	for i := 0; i < 3; i++ {
		pk, err := btcec.NewPrivateKey()
		require.NoError(t, err)
		pubKeys = append(pubKeys, pk.PubKey().SerializeCompressed())
	}

	raw, err := txscript.NewScriptBuilder().AddOp(txscript.OP_2).
		AddData(pubKeys[0]).AddData(pubKeys[1]).AddData(pubKeys[2]).
		AddOp(txscript.OP_3).AddOp(txscript.OP_CHECKMULTISIG).Script()
	require.NoError(t, err)
	script, err := ParseScript(raw)
	require.NoError(t, err)

	info := AnalyzeScript(script, &chaincfg.RegressionNetParams)
	assert.Equal(t, "multisig", info.Class)
	assert.True(t, info.Standard)
	assert.Equal(t, 2, info.Required)
	assert.Len(t, info.Addresses, 3)
}

func TestAnalyzeScriptNonStandard(t *testing.T) {
	script, err := Compile("OP_1 OP_1 OP_ADD", nil)
	require.NoError(t, err)

	info := AnalyzeScript(script, &chaincfg.MainNetParams)
	assert.Equal(t, "nonstandard", info.Class)
	assert.False(t, info.Standard)
	assert.Equal(t, "non-standard script form", info.Reason)
	assert.Equal(t, 3, info.Ops)
	assert.Zero(t, info.SigOps)
	assert.Empty(t, info.Addresses)
}
