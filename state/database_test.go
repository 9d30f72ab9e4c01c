package state

import (
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/nsf/jsondiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
	slot1 = common.HexToHash("0x01")
	slot2 = common.HexToHash("0x02")
)

func TestStoreApplyAndRead(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	code := []byte{0x60, 0x01, 0x00}
	h := crypto.Keccak256Hash(code)
	require.NoError(t, s.Apply(&ChangeSet{
		Accounts: map[common.Address]*Account{alice: {Nonce: 3, Balance: uint256.NewInt(1000), CodeHash: h}},
		Storage:  map[common.Address]map[common.Hash]common.Hash{alice: {slot1: common.HexToHash("0xff")}},
		Code:     map[common.Hash][]byte{h: code},
	}))

	acc, err := s.Basic(alice)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, uint64(3), acc.Nonce)
	assert.Equal(t, uint64(1000), acc.Balance.Uint64())
	assert.Equal(t, h, acc.CodeHash)

	got, err := s.CodeByHash(h)
	require.NoError(t, err)
	assert.Equal(t, code, got)

	v, err := s.Storage(alice, slot1)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xff"), v)

	missing, err := s.Basic(bob)
	require.NoError(t, err)
	assert.Nil(t, missing)

	has, err := s.HasStorage(alice)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestStoreDeleteSweepsStorage(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Apply(&ChangeSet{
		Accounts: map[common.Address]*Account{alice: NewAccount(), bob: NewAccount()},
		Storage: map[common.Address]map[common.Hash]common.Hash{
			alice: {slot1: common.HexToHash("0x1"), slot2: common.HexToHash("0x2")},
			bob:   {slot1: common.HexToHash("0x3")},
		},
	}))
	require.NoError(t, s.Apply(&ChangeSet{Accounts: map[common.Address]*Account{alice: nil}}))

	has, err := s.HasStorage(alice)
	require.NoError(t, err)
	assert.False(t, has)
	has, err = s.HasStorage(bob)
	require.NoError(t, err)
	assert.True(t, has, "a neighbouring address keeps its slots")

	addrs, err := s.Accounts()
	require.NoError(t, err)
	assert.Equal(t, []common.Address{bob}, addrs)
}

func TestStoreZeroSlotDeletes(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	require.NoError(t, s.Apply(&ChangeSet{
		Accounts: map[common.Address]*Account{alice: NewAccount()},
		Storage:  map[common.Address]map[common.Hash]common.Hash{alice: {slot1: common.HexToHash("0x1")}},
	}))
	require.NoError(t, s.Apply(&ChangeSet{
		Accounts: map[common.Address]*Account{alice: NewAccount()},
		Storage:  map[common.Address]map[common.Hash]common.Hash{alice: {slot1: {}}},
	}))
	has, err := s.HasStorage(alice)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	s, err := OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Apply(&ChangeSet{Accounts: map[common.Address]*Account{alice: {Nonce: 9, Balance: uint256.NewInt(5)}}}))
	require.NoError(t, s.PutBlockHash(7, common.HexToHash("0xbeef")))
	require.NoError(t, s.Close())

	s, err = OpenStore(path)
	require.NoError(t, err)
	defer s.Close()
	acc, err := s.Basic(alice)
	require.NoError(t, err)
	require.NotNil(t, acc)
	assert.Equal(t, uint64(9), acc.Nonce)
	h, err := s.BlockHash(7)
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xbeef"), h)
}

func TestStoreDump(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	code := []byte{0x00}
	h := crypto.Keccak256Hash(code)
	require.NoError(t, s.Apply(&ChangeSet{
		Accounts: map[common.Address]*Account{alice: {Nonce: 1, Balance: uint256.NewInt(16), CodeHash: h}},
		Storage:  map[common.Address]map[common.Hash]common.Hash{alice: {slot1: common.HexToHash("0x2a")}},
		Code:     map[common.Hash][]byte{h: code},
	}))
	dump, err := s.Dump()
	require.NoError(t, err)
	got, err := dump.JSON()
	require.NoError(t, err)

	want := `{
	  "0x00000000000000000000000000000000000a11ce": {
	    "balance": "0x10",
	    "nonce": "0x1",
	    "code": "0x00",
	    "storage": {
	      "0x0000000000000000000000000000000000000000000000000000000000000001": "0x000000000000000000000000000000000000000000000000000000000000002a"
	    }
	  }
	}`
	opts := jsondiff.DefaultConsoleOptions()
	diff, report := jsondiff.Compare(got, []byte(want), &opts)
	assert.Equal(t, jsondiff.FullMatch, diff, report)
}
