package state

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vm"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/nsf/jsondiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenDB fails every read.
type brokenDB struct{ err error }

func (b brokenDB) Basic(common.Address) (*Account, error)                   { return nil, b.err }
func (b brokenDB) CodeByHash(common.Hash) ([]byte, error)                   { return nil, b.err }
func (b brokenDB) Storage(common.Address, common.Hash) (common.Hash, error) { return common.Hash{}, b.err }
func (b brokenDB) HasStorage(common.Address) (bool, error)                  { return false, b.err }
func (b brokenDB) BlockHash(uint64) (common.Hash, error)                    { return common.Hash{}, b.err }

func TestCacheReadsThroughOnce(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	require.NoError(t, s.Apply(&ChangeSet{
		Accounts: map[common.Address]*Account{alice: {Nonce: 1, Balance: uint256.NewInt(50), CodeHash: types.EmptyCodeHash}},
		Storage:  map[common.Address]map[common.Hash]common.Hash{alice: {slot1: common.HexToHash("0x7")}},
	}))

	c := NewCache(s, true)
	assert.Equal(t, Loaded, c.Status(alice))
	assert.Equal(t, LoadedNotExisting, c.Status(bob))
	assert.Equal(t, uint64(50), c.GetBalance(alice).Uint64())
	assert.Equal(t, common.HexToHash("0x7"), c.GetState(alice, slot1))

	// a later write to the store is not seen through the cache
	require.NoError(t, s.Apply(&ChangeSet{Storage: map[common.Address]map[common.Hash]common.Hash{alice: {slot1: common.HexToHash("0x8")}}}))
	assert.Equal(t, common.HexToHash("0x7"), c.GetState(alice, slot1))
}

func TestCacheCommittedState(t *testing.T) {
	c := NewCache(NewMemoryStore(), true)
	c.InsertAccountWithStorage(alice, NewAccount(), map[common.Hash]common.Hash{slot1: common.HexToHash("0x1")})

	c.SetState(alice, slot1, common.HexToHash("0x2"))
	assert.Equal(t, common.HexToHash("0x2"), c.GetState(alice, slot1))
	assert.Equal(t, common.HexToHash("0x1"), c.GetCommittedState(alice, slot1))

	c.FinishTx()
	assert.Equal(t, common.HexToHash("0x2"), c.GetCommittedState(alice, slot1))
}

func TestCacheCreateKeepsBalanceAndWipesStorage(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	require.NoError(t, s.Apply(&ChangeSet{
		Accounts: map[common.Address]*Account{alice: {Balance: uint256.NewInt(9), CodeHash: types.EmptyCodeHash}},
		Storage:  map[common.Address]map[common.Hash]common.Hash{alice: {slot1: common.HexToHash("0x5")}},
	}))
	c := NewCache(s, true)
	c.CreateAccount(alice)
	assert.Equal(t, NewlyCreated, c.Status(alice))
	assert.Equal(t, uint64(9), c.GetBalance(alice).Uint64())
	assert.Equal(t, common.Hash{}, c.GetState(alice, slot1))
	assert.False(t, c.HasStorage(alice))

	c.SetNonce(alice, 1)
	require.NoError(t, c.Commit(s))
	v, err := s.Storage(alice, slot1)
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, v)
}

func TestCacheStateClear(t *testing.T) {
	for _, tc := range []struct {
		name   string
		clear  bool
		stored bool
	}{
		{"eip161", true, false},
		{"pre-eip161", false, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := NewMemoryStore()
			defer s.Close()
			c := NewCache(s, tc.clear)
			c.SetBalance(bob, new(uint256.Int))
			require.NoError(t, c.Commit(s))
			acc, err := s.Basic(bob)
			require.NoError(t, err)
			assert.Equal(t, tc.stored, acc != nil)
		})
	}
}

func TestCacheDeleteAccount(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	require.NoError(t, s.Apply(&ChangeSet{
		Accounts: map[common.Address]*Account{alice: {Nonce: 1, Balance: uint256.NewInt(1), CodeHash: types.EmptyCodeHash}},
		Storage:  map[common.Address]map[common.Hash]common.Hash{alice: {slot1: common.HexToHash("0x1")}},
	}))
	c := NewCache(s, true)
	c.DeleteAccount(alice)
	assert.False(t, c.Exist(alice))
	require.NoError(t, c.Commit(s))

	acc, err := s.Basic(alice)
	require.NoError(t, err)
	assert.Nil(t, acc)
	has, err := s.HasStorage(alice)
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, LoadedNotExisting, c.Status(alice))
}

func TestCacheRecordsDatabaseError(t *testing.T) {
	boom := errors.New("disk on fire")
	c := NewCache(brokenDB{boom}, true)
	assert.False(t, c.Exist(alice))
	assert.Zero(t, c.GetBalance(alice).Uint64())
	assert.ErrorIs(t, c.Err(), boom)
	assert.ErrorIs(t, c.Commit(NewMemoryStore()), boom)
}

// A contract that increments slot 0 on every call.
var counter = []byte{
	0x5f, 0x54,       // PUSH0 SLOAD
	0x60, 0x01, 0x01, // PUSH1 1 ADD
	0x5f, 0x55,       // PUSH0 SSTORE
	0x00,
}

func runTx(t *testing.T, host vm.Host, to common.Address) *vm.Outcome {
	t.Helper()
	block := vm.BlockContext{GasLimit: 30_000_000, BlockNumber: big.NewInt(1), Difficulty: new(big.Int), BaseFee: new(big.Int), ChainID: big.NewInt(1)}
	evm := vm.New(host, rules.ForFork(rules.Cancun), vm.Config{}, block, vm.TxContext{Origin: alice, GasPrice: new(big.Int)})
	o := evm.Execute(context.Background(), &vm.Message{Kind: vm.KindCall, Caller: alice, To: to, Gas: 100_000})
	evm.Finalize()
	return o
}

func TestAllocCommitsCodeAndStorage(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	require.NoError(t, s.Apply(&ChangeSet{
		Accounts: map[common.Address]*Account{bob: {Balance: uint256.NewInt(1), CodeHash: types.EmptyCodeHash}},
		Storage:  map[common.Address]map[common.Hash]common.Hash{bob: {slot1: common.HexToHash("0x9")}},
	}))
	c := NewCache(s, true)
	c.InsertAlloc(Alloc{
		alice: {Nonce: 1},
		bob:   {Code: counter, Storage: map[common.Hash]common.Hash{{}: common.HexToHash("0x41")}},
	})
	require.NoError(t, c.Commit(s))

	code, err := s.CodeByHash(crypto.Keccak256Hash(counter))
	require.NoError(t, err)
	assert.Equal(t, counter, code)

	c = NewCache(s, true)
	assert.Equal(t, counter, c.GetCode(bob))
	assert.Equal(t, common.Hash{}, c.GetState(bob, slot1), "the alloc replaces the stored account")
	o := runTx(t, c, bob)
	require.True(t, o.Success(), o.String())
	assert.Equal(t, common.HexToHash("0x42"), c.GetState(bob, common.Hash{}))
	require.NoError(t, c.Err())
}

func TestEngineAgainstPersistentState(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	c := NewCache(s, true)
	c.InsertAlloc(Alloc{
		alice: {Nonce: 1},
		bob:   {Code: counter},
	})
	for i := 0; i < 3; i++ {
		o := runTx(t, c, bob)
		require.True(t, o.Success(), o.String())
		c.FinishTx()
	}
	require.NoError(t, c.Commit(s))

	// a fresh cache over the same store picks up where the first left off
	c = NewCache(s, true)
	o := runTx(t, c, bob)
	require.True(t, o.Success(), o.String())
	require.NoError(t, c.Commit(s))

	dump, err := s.Dump()
	require.NoError(t, err)
	got, err := dump.JSON()
	require.NoError(t, err)
	want := `{
	  "0x0000000000000000000000000000000000000b0b": {
	    "balance": "0x0",
	    "code": "0x5f546001015f5500",
	    "storage": {
	      "0x0000000000000000000000000000000000000000000000000000000000000000": "0x0000000000000000000000000000000000000000000000000000000000000004"
	    }
	  }
	}`
	opts := jsondiff.DefaultConsoleOptions()
	diff, report := jsondiff.Compare(got, []byte(want), &opts)
	assert.Equal(t, jsondiff.SupersetMatch, diff, report)
}
