package vm

import (
	"github.com/colorfulnotion/evm/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

type memAccount struct {
	nonce    uint64
	balance  *uint256.Int
	code     []byte
	codeHash common.Hash
	storage  map[common.Hash]common.Hash
}

// MemoryHost is a Host held entirely in maps, for tests and one-off runs.
// Original slot values are taken on the first write of a transaction and
// dropped by Commit.
type MemoryHost struct {
	accounts    map[common.Address]*memAccount
	originals   map[common.Address]map[common.Hash]common.Hash
	blockHashes map[uint64]common.Hash
}

func NewMemoryHost() *MemoryHost {
	return &MemoryHost{
		accounts:    make(map[common.Address]*memAccount),
		originals:   make(map[common.Address]map[common.Hash]common.Hash),
		blockHashes: make(map[uint64]common.Hash),
	}
}

func (m *MemoryHost) account(addr common.Address) *memAccount {
	acc, ok := m.accounts[addr]
	if !ok {
		acc = &memAccount{balance: new(uint256.Int), codeHash: types.EmptyCodeHash, storage: make(map[common.Hash]common.Hash)}
		m.accounts[addr] = acc
	}
	return acc
}

// SetAccount installs an account outside any transaction.
func (m *MemoryHost) SetAccount(addr common.Address, balance uint64, nonce uint64, code []byte) {
	acc := m.account(addr)
	acc.balance = uint256.NewInt(balance)
	acc.nonce = nonce
	m.SetCode(addr, code)
}

func (m *MemoryHost) SetBlockHash(number uint64, h common.Hash) { m.blockHashes[number] = h }

// Commit makes the current slot values the originals of the next transaction.
func (m *MemoryHost) Commit() {
	clear(m.originals)
}

func (m *MemoryHost) Exist(addr common.Address) bool {
	_, ok := m.accounts[addr]
	return ok
}

func (m *MemoryHost) Empty(addr common.Address) bool {
	acc, ok := m.accounts[addr]
	return !ok || (acc.nonce == 0 && acc.balance.IsZero() && len(acc.code) == 0)
}

func (m *MemoryHost) CreateAccount(addr common.Address) {
	acc := m.account(addr)
	// a pre-funded address keeps its balance
	*acc = memAccount{balance: acc.balance, codeHash: types.EmptyCodeHash, storage: make(map[common.Hash]common.Hash)}
}

func (m *MemoryHost) DeleteAccount(addr common.Address) {
	delete(m.accounts, addr)
}

func (m *MemoryHost) GetBalance(addr common.Address) *uint256.Int {
	if acc, ok := m.accounts[addr]; ok {
		return new(uint256.Int).Set(acc.balance)
	}
	return new(uint256.Int)
}

func (m *MemoryHost) SetBalance(addr common.Address, amount *uint256.Int) {
	m.account(addr).balance = new(uint256.Int).Set(amount)
}

func (m *MemoryHost) GetNonce(addr common.Address) uint64 {
	if acc, ok := m.accounts[addr]; ok {
		return acc.nonce
	}
	return 0
}

func (m *MemoryHost) SetNonce(addr common.Address, nonce uint64) {
	m.account(addr).nonce = nonce
}

func (m *MemoryHost) GetCode(addr common.Address) []byte {
	if acc, ok := m.accounts[addr]; ok {
		return acc.code
	}
	return nil
}

func (m *MemoryHost) GetCodeHash(addr common.Address) common.Hash {
	if acc, ok := m.accounts[addr]; ok {
		return acc.codeHash
	}
	return common.Hash{}
}

func (m *MemoryHost) SetCode(addr common.Address, code []byte) {
	acc := m.account(addr)
	acc.code = code
	if len(code) == 0 {
		acc.codeHash = types.EmptyCodeHash
	} else {
		acc.codeHash = crypto.Keccak256Hash(code)
	}
}

func (m *MemoryHost) GetState(addr common.Address, key common.Hash) common.Hash {
	if acc, ok := m.accounts[addr]; ok {
		return acc.storage[key]
	}
	return common.Hash{}
}

func (m *MemoryHost) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	if v, ok := m.originals[addr][key]; ok {
		return v
	}
	return m.GetState(addr, key)
}

func (m *MemoryHost) SetState(addr common.Address, key, value common.Hash) {
	orig, ok := m.originals[addr]
	if !ok {
		orig = make(map[common.Hash]common.Hash)
		m.originals[addr] = orig
	}
	if _, seen := orig[key]; !seen {
		orig[key] = m.GetState(addr, key)
	}
	acc := m.account(addr)
	if value == (common.Hash{}) {
		delete(acc.storage, key)
		return
	}
	acc.storage[key] = value
}

func (m *MemoryHost) HasStorage(addr common.Address) bool {
	acc, ok := m.accounts[addr]
	return ok && len(acc.storage) > 0
}

func (m *MemoryHost) GetBlockHash(number uint64) common.Hash {
	return m.blockHashes[number]
}

// Storage returns a copy of the non-zero slots of addr.
func (m *MemoryHost) Storage(addr common.Address) map[common.Hash]common.Hash {
	out := make(map[common.Hash]common.Hash)
	if acc, ok := m.accounts[addr]; ok {
		for k, v := range acc.storage {
			out[k] = v
		}
	}
	return out
}
