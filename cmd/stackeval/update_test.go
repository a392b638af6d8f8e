package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelfUpdate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "stackeval")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

	next := []byte("new build")
	sum := sha256.Sum256(next)

	require.NoError(t, selfUpdate(bytes.NewReader(next), target, hex.EncodeToString(sum[:])))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, next, data)

	// 校验和不符时不替换
	err = selfUpdate(bytes.NewReader([]byte("tampered")), target, hex.EncodeToString(sum[:]))
	assert.Error(t, err)
	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, next, data)

	assert.Error(t, selfUpdate(bytes.NewReader(next), target, "zz"))
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"1.0.1", "1.2.0", -1},
		{"v1.2.0", "1.2", 0},
		{"2.0", "1.9.9", 1},
		{"1.10", "1.9", 1},
	}
	for _, tc := range tests {
		got, err := CompareVersions(tc.v1, tc.v2)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s vs %s", tc.v1, tc.v2)
	}

	_, err := CompareVersions("1.x", "1.0")
	assert.Error(t, err)
}

func TestCheckUpgrade(t *testing.T) {
	assert.NoError(t, checkUpgrade("dev", "0.1.0", false))
	assert.NoError(t, checkUpgrade("1.0.0", "", false))
	assert.NoError(t, checkUpgrade("1.0.0", "1.0.1", false))
	assert.Error(t, checkUpgrade("1.0.0", "1.0.0", false))
	assert.Error(t, checkUpgrade("1.2.0", "v1.1.9", false))
	assert.NoError(t, checkUpgrade("1.2.0", "1.1.9", true))
}
