package stackeval

import (
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opt := DefaultOptions()
	require.NoError(t, opt.CheckAndSetOptions())

	flags, err := opt.ScriptFlags()
	require.NoError(t, err)
	assert.NotZero(t, flags&txscript.ScriptVerifyNullFail)
	assert.Zero(t, flags&txscript.ScriptVerifyMinimalData)
	assert.Zero(t, flags&txscript.ScriptBip16)
	assert.Equal(t, &chaincfg.MainNetParams, opt.NetParams())
}

func TestLoadOptions(t *testing.T) {
	fs := afero.NewMemMapFs()
	conf := `
log_level = "debug"
network = "Regtest"
flags = ["MinimalData", "nullfail"]
input_amount = 5000
max_steps = 100
`
	require.NoError(t, afero.WriteFile(fs, "/etc/stackeval.toml", []byte(conf), 0644))

	opt, err := LoadOptions(fs, "/etc/stackeval.toml")
	require.NoError(t, err)
	assert.Equal(t, "debug", opt.LogLevel)
	assert.Equal(t, "regtest", opt.Network)
	assert.Equal(t, []string{"minimaldata", "nullfail"}, opt.Flags)
	assert.Equal(t, int64(5000), opt.InputAmount)
	assert.Equal(t, 100, opt.MaxSteps)
	assert.Equal(t, "traces", opt.ExportDir)

	flags, err := opt.ScriptFlags()
	require.NoError(t, err)
	assert.Equal(t, txscript.ScriptVerifyMinimalData|txscript.ScriptVerifyNullFail, flags)
}

func TestLoadOptionsErrors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadOptions(fs, "/missing.toml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/bad.toml", []byte("flags = ["), 0644))
	_, err = LoadOptions(fs, "/bad.toml")
	assert.True(t, errors.Is(err, ErrParse))

	require.NoError(t, afero.WriteFile(fs, "/flag.toml", []byte(`flags = ["taproot"]`), 0644))
	_, err = LoadOptions(fs, "/flag.toml")
	assert.ErrorContains(t, err, "taproot")

	require.NoError(t, afero.WriteFile(fs, "/net.toml", []byte(`network = "moon"`), 0644))
	_, err = LoadOptions(fs, "/net.toml")
	assert.Error(t, err)
}

func TestBuildOptions(t *testing.T) {
	opt := DefaultOptions()
	opt.BuildLogLevel("")
	opt.BuildVariablesDir("")
	assert.Equal(t, "info", opt.LogLevel)
	assert.Empty(t, opt.VariablesDir)

	opt.BuildLogLevel("warning")
	opt.BuildVariablesDir("/tmp/vars")
	opt.BuildFlags()
	opt.BuildInputAmount(-1)
	assert.Equal(t, "/tmp/vars", opt.VariablesDir)
	assert.Error(t, opt.CheckAndSetOptions())

	opt.BuildInputAmount(1)
	assert.NoError(t, opt.CheckAndSetOptions())

	flags, err := opt.ScriptFlags()
	require.NoError(t, err)
	assert.Zero(t, flags)
}
