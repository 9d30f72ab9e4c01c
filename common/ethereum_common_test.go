package common

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEVMDevAccount(t *testing.T) {
	for i := 0; i < 10; i++ {
		addr, privKeyHex := GetEVMDevAccount(i)
		require.NotEqual(t, Address{}, addr, "account %d", i)
		require.Len(t, privKeyHex, 64)

		// Verify private key derives to correct address
		privKey, err := crypto.HexToECDSA(privKeyHex)
		require.NoError(t, err)
		assert.Equal(t, addr, crypto.PubkeyToAddress(privKey.PublicKey), "account %d", i)
	}

	// indices wrap around
	a0, _ := GetEVMDevAccount(0)
	a10, _ := GetEVMDevAccount(10)
	assert.Equal(t, a0, a10)
}

func TestHexHelpers(t *testing.T) {
	assert.Equal(t, []byte{0x60, 0x01}, FromHex("0x6001"))
	assert.Equal(t, []byte{0x60, 0x01}, FromHex("6001"))
	assert.Equal(t, "0x6001", Bytes2Hex([]byte{0x60, 0x01}))
	assert.Equal(t, "6001", Bytes2String([]byte{0x60, 0x01}))

	a := HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	assert.Equal(t, "0xf39F..2266", ShortAddress(a))
}

func TestCommitInfoShort(t *testing.T) {
	info := CommitInfo{Hash: "0123456789abcdef0123456789abcdef01234567"}
	assert.Equal(t, "01234567", info.Short())
	info.Dirty = true
	assert.Equal(t, "01234567+", info.Short())
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "ok", Colorize(ColorGreen, "ok", true))
	assert.Equal(t, ColorGreen+"ok"+ColorReset, Colorize(ColorGreen, "ok", false))
}
