package stackeval

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/sirupsen/logrus"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/ripemd160"
)

// 密钥保存为三个变量：name_priv、name_pub、name_pkh
const (
	privSuffix = "_priv"
	pubSuffix  = "_pub"
	pkhSuffix  = "_pkh"
)

// KeyInfo 保存到变量存储中的一组密钥
type KeyInfo struct {
	Name       string
	PubKey     []byte // 压缩公钥
	PubKeyHash []byte // RIPEMD160(SHA256(公钥))
	Address    string // P2PKH 地址
	WIF        string // 压缩格式的私钥
}

// HashPubKey 函数接受一个公钥的字节切片，返回该公钥的RIPEMD160哈希。
func HashPubKey(pubKey []byte) []byte {
	// 使用SHA256算法对公钥进行哈希
	publicSHA256 := sha256.Sum256(pubKey)

	RIPEMD160Hasher := ripemd160.New()
	if _, err := RIPEMD160Hasher.Write(publicSHA256[:]); err != nil {
		logrus.Panic(err)
	}
	return RIPEMD160Hasher.Sum(nil)
}

// StoreKey 把私钥、压缩公钥和公钥哈希写入变量存储，脚本中可以用 $name_pub、$name_pkh 引用
func StoreKey(vars Variables, name string, key *btcec.PrivateKey, params *chaincfg.Params) (*KeyInfo, error) {
	if err := validVariableName(name); err != nil {
		return nil, err
	}

	pubKey := key.PubKey().SerializeCompressed()
	pubKeyHash := HashPubKey(pubKey)

	addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, params)
	if err != nil {
		return nil, fmt.Errorf("生成地址失败: %w", err)
	}
	wif, err := btcutil.NewWIF(key, params, true)
	if err != nil {
		return nil, fmt.Errorf("编码私钥失败: %w", err)
	}

	values := map[string][]byte{
		name + privSuffix: key.Serialize(),
		name + pubSuffix:  pubKey,
		name + pkhSuffix:  pubKeyHash,
	}
	for k, v := range values {
		if err := vars.Set(k, v); err != nil {
			return nil, err
		}
	}

	return &KeyInfo{
		Name:       name,
		PubKey:     pubKey,
		PubKeyHash: pubKeyHash,
		Address:    addr.EncodeAddress(),
		WIF:        wif.String(),
	}, nil
}

// GenerateKey 生成新的随机密钥并保存
func GenerateKey(vars Variables, name string, params *chaincfg.Params) (*KeyInfo, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("生成私钥失败: %w", err)
	}
	return StoreKey(vars, name, key, params)
}

// ImportWIF 导入 WIF 格式的私钥并保存，私钥必须属于给定网络
func ImportWIF(vars Variables, name, text string, params *chaincfg.Params) (*KeyInfo, error) {
	wif, err := btcutil.DecodeWIF(text)
	if err != nil {
		return nil, fmt.Errorf("%w: WIF 私钥: %v", ErrParse, err)
	}
	if !wif.IsForNet(params) {
		return nil, fmt.Errorf("%w: WIF 私钥不属于 %s", ErrParse, params.Name)
	}
	return StoreKey(vars, name, wif.PrivKey, params)
}

// SeedFromMnemonic 按 BIP39 的方式由助记词和密码生成 64 字节种子，不校验助记词本身
func SeedFromMnemonic(mnemonic, password string) []byte {
	return pbkdf2.Key([]byte(mnemonic), []byte("mnemonic"+password), 2048, 64, sha512.New)
}

// DeriveKey 从种子派生第 index 个硬化子私钥 m/index'
func DeriveKey(seed []byte, index uint32) (*btcec.PrivateKey, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("生成主密钥失败: %w", err)
	}
	child, err := master.NewChildKey(bip32.FirstHardenedChild + index)
	if err != nil {
		return nil, fmt.Errorf("派生子密钥失败: %w", err)
	}

	key, _ := btcec.PrivKeyFromBytes(child.Key)
	return key, nil
}
