// Package state provides the account state the engine runs against: a
// write-back Cache implementing vm.Host over a Database, and a goleveldb
// Store to persist it.
package state

import (
	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/log"
	"github.com/colorfulnotion/evm/vm"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// AccountStatus is how a cached account relates to the Database.
type AccountStatus uint8

const (
	LoadedNotExisting AccountStatus = iota
	Loaded
	LoadedEmptyEIP161
	Changed
	NewlyCreated
	Destroyed
)

var statusNames = [...]string{
	LoadedNotExisting: "LoadedNotExisting",
	Loaded:            "Loaded",
	LoadedEmptyEIP161: "LoadedEmptyEIP161",
	Changed:           "Changed",
	NewlyCreated:      "NewlyCreated",
	Destroyed:         "Destroyed",
}

func (s AccountStatus) String() string { return statusNames[s] }

type slot struct {
	original  common.Hash // as stored in the Database
	committed common.Hash // at the start of the current transaction
	present   common.Hash
}

type cachedAccount struct {
	info    *Account // nil when the account does not exist
	status  AccountStatus
	storage map[common.Hash]*slot
	wiped   bool // database slots are gone; do not read through
	dirty   bool
}

func newCachedAccount(info *Account, status AccountStatus) *cachedAccount {
	return &cachedAccount{info: info, status: status, storage: make(map[common.Hash]*slot)}
}

// Cache holds every account a run has read or written, and the code of
// every contract by hash. Reads fall through to the Database once; writes
// stay in the cache until Commit.
//
// Host methods cannot return errors. The first Database error is kept and
// reported by Err, and the failed read is treated as a missing value.
type Cache struct {
	db         Database
	accounts   map[common.Address]*cachedAccount
	contracts  map[common.Hash][]byte
	newCode    map[common.Hash]struct{}
	stateClear bool
	err        error
}

var _ vm.Host = (*Cache)(nil)

// NewCache returns a Cache over db. stateClear enables EIP-161: empty
// accounts are never written back.
func NewCache(db Database, stateClear bool) *Cache {
	return &Cache{
		db:         db,
		accounts:   make(map[common.Address]*cachedAccount),
		contracts:  make(map[common.Hash][]byte),
		newCode:    make(map[common.Hash]struct{}),
		stateClear: stateClear,
	}
}

// SetStateClear switches EIP-161 behaviour, e.g. when a chain crosses
// Spurious Dragon.
func (c *Cache) SetStateClear(on bool) { c.stateClear = on }

// Err returns the first Database error seen by a Host method.
func (c *Cache) Err() error { return c.err }

func (c *Cache) fail(err error, what string, args ...any) {
	if err == nil {
		return
	}
	log.Warn(log.State, "database read failed", append([]any{"what", what, "err", err}, args...)...)
	if c.err == nil {
		c.err = err
	}
}

// InsertNotExisting records addr as known missing, skipping the database.
func (c *Cache) InsertNotExisting(addr common.Address) {
	c.accounts[addr] = newCachedAccount(nil, LoadedNotExisting)
}

// InsertAccount records info for addr as loaded.
func (c *Cache) InsertAccount(addr common.Address, info *Account) {
	c.InsertAccountWithStorage(addr, info, nil)
}

// InsertAccountWithStorage records info and the given slots as loaded.
func (c *Cache) InsertAccountWithStorage(addr common.Address, info *Account, storage map[common.Hash]common.Hash) {
	status := Loaded
	if info.IsEmpty() {
		status = LoadedEmptyEIP161
	}
	acc := newCachedAccount(info.Copy(), status)
	for k, v := range storage {
		acc.storage[k] = &slot{original: v, committed: v, present: v}
	}
	c.accounts[addr] = acc
}

// InsertCode makes code available by its hash.
func (c *Cache) InsertCode(code []byte) common.Hash {
	if len(code) == 0 {
		return types.EmptyCodeHash
	}
	h := crypto.Keccak256Hash(code)
	c.contracts[h] = code
	return h
}

// Status returns the cache status of addr, loading it if needed.
func (c *Cache) Status(addr common.Address) AccountStatus {
	return c.load(addr).status
}

func (c *Cache) load(addr common.Address) *cachedAccount {
	if acc, ok := c.accounts[addr]; ok {
		return acc
	}
	info, err := c.db.Basic(addr)
	c.fail(err, "account", "addr", addr)
	var acc *cachedAccount
	switch {
	case info == nil:
		acc = newCachedAccount(nil, LoadedNotExisting)
	case info.IsEmpty():
		acc = newCachedAccount(info, LoadedEmptyEIP161)
	default:
		acc = newCachedAccount(info, Loaded)
	}
	c.accounts[addr] = acc
	return acc
}

// modify returns addr's account for writing, bringing it into existence.
func (c *Cache) modify(addr common.Address) *cachedAccount {
	acc := c.load(addr)
	if acc.info == nil {
		acc.info = NewAccount()
	}
	if acc.status != NewlyCreated {
		acc.status = Changed
	}
	acc.dirty = true
	return acc
}

func (c *Cache) Exist(addr common.Address) bool {
	return c.load(addr).info != nil
}

func (c *Cache) Empty(addr common.Address) bool {
	acc := c.load(addr)
	return acc.info == nil || acc.info.IsEmpty()
}

func (c *Cache) CreateAccount(addr common.Address) {
	acc := c.load(addr)
	balance := new(uint256.Int)
	if acc.info != nil {
		balance.Set(acc.info.Balance)
	}
	acc.info = &Account{Balance: balance, CodeHash: types.EmptyCodeHash}
	acc.storage = make(map[common.Hash]*slot)
	acc.wiped, acc.dirty, acc.status = true, true, NewlyCreated
}

func (c *Cache) DeleteAccount(addr common.Address) {
	acc := c.load(addr)
	acc.info = nil
	acc.storage = make(map[common.Hash]*slot)
	acc.wiped, acc.dirty, acc.status = true, true, Destroyed
}

func (c *Cache) GetBalance(addr common.Address) *uint256.Int {
	if acc := c.load(addr); acc.info != nil {
		return new(uint256.Int).Set(acc.info.Balance)
	}
	return new(uint256.Int)
}

func (c *Cache) SetBalance(addr common.Address, amount *uint256.Int) {
	c.modify(addr).info.Balance = new(uint256.Int).Set(amount)
}

func (c *Cache) GetNonce(addr common.Address) uint64 {
	if acc := c.load(addr); acc.info != nil {
		return acc.info.Nonce
	}
	return 0
}

func (c *Cache) SetNonce(addr common.Address, nonce uint64) {
	c.modify(addr).info.Nonce = nonce
}

func (c *Cache) GetCode(addr common.Address) []byte {
	acc := c.load(addr)
	if acc.info == nil || acc.info.CodeHash == types.EmptyCodeHash {
		return nil
	}
	h := acc.info.CodeHash
	if code, ok := c.contracts[h]; ok {
		return code
	}
	code, err := c.db.CodeByHash(h)
	c.fail(err, "code", "hash", h)
	c.contracts[h] = code
	return code
}

func (c *Cache) GetCodeHash(addr common.Address) common.Hash {
	if acc := c.load(addr); acc.info != nil {
		return acc.info.CodeHash
	}
	return common.Hash{}
}

func (c *Cache) SetCode(addr common.Address, code []byte) {
	h := c.InsertCode(code)
	if h != types.EmptyCodeHash {
		c.newCode[h] = struct{}{}
	}
	c.modify(addr).info.CodeHash = h
}

func (c *Cache) slot(addr common.Address, key common.Hash) *slot {
	acc := c.load(addr)
	if s, ok := acc.storage[key]; ok {
		return s
	}
	var v common.Hash
	if acc.info != nil && !acc.wiped {
		var err error
		v, err = c.db.Storage(addr, key)
		c.fail(err, "storage", "addr", addr, "key", key)
	}
	s := &slot{original: v, committed: v, present: v}
	acc.storage[key] = s
	return s
}

func (c *Cache) GetState(addr common.Address, key common.Hash) common.Hash {
	return c.slot(addr, key).present
}

func (c *Cache) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	return c.slot(addr, key).committed
}

func (c *Cache) SetState(addr common.Address, key, value common.Hash) {
	c.slot(addr, key).present = value
	c.modify(addr)
}

func (c *Cache) HasStorage(addr common.Address) bool {
	acc := c.load(addr)
	for _, s := range acc.storage {
		if s.present != (common.Hash{}) {
			return true
		}
	}
	if acc.info == nil || acc.wiped {
		return false
	}
	has, err := c.db.HasStorage(addr)
	c.fail(err, "has storage", "addr", addr)
	return has
}

func (c *Cache) GetBlockHash(number uint64) common.Hash {
	h, err := c.db.BlockHash(number)
	c.fail(err, "block hash", "number", number)
	return h
}

// FinishTx makes the present slot values the committed values seen by the
// next transaction's SSTORE metering.
func (c *Cache) FinishTx() {
	for _, acc := range c.accounts {
		for _, s := range acc.storage {
			s.committed = s.present
		}
	}
}

// Changes collects everything that differs from the Database.
func (c *Cache) Changes() *ChangeSet {
	cs := &ChangeSet{
		Accounts: make(map[common.Address]*Account),
		Storage:  make(map[common.Address]map[common.Hash]common.Hash),
		Code:     make(map[common.Hash][]byte),
	}
	for addr, acc := range c.accounts {
		if !acc.dirty {
			continue
		}
		if acc.wiped {
			cs.Destroyed = append(cs.Destroyed, addr)
		}
		if acc.info == nil || (c.stateClear && acc.info.IsEmpty()) {
			cs.Accounts[addr] = nil
			continue
		}
		cs.Accounts[addr] = acc.info.Copy()
		for key, s := range acc.storage {
			if s.present == s.original && !acc.wiped {
				continue
			}
			slots, ok := cs.Storage[addr]
			if !ok {
				slots = make(map[common.Hash]common.Hash)
				cs.Storage[addr] = slots
			}
			slots[key] = s.present
		}
	}
	for h := range c.newCode {
		cs.Code[h] = c.contracts[h]
	}
	return cs
}

// Commit writes the changes to w and marks the cache clean.
func (c *Cache) Commit(w Writer) error {
	if c.err != nil {
		return c.err
	}
	cs := c.Changes()
	if err := w.Apply(cs); err != nil {
		return err
	}
	for addr, acc := range c.accounts {
		if !acc.dirty {
			continue
		}
		if cs.Accounts[addr] == nil {
			c.accounts[addr] = newCachedAccount(nil, LoadedNotExisting)
			continue
		}
		for _, s := range acc.storage {
			s.original, s.committed = s.present, s.present
		}
		acc.wiped, acc.dirty, acc.status = false, false, Loaded
		if acc.info.IsEmpty() {
			acc.status = LoadedEmptyEIP161
		}
	}
	clear(c.newCode)
	log.Info(log.State, "state committed", "accounts", len(cs.Accounts), "code", len(cs.Code))
	return nil
}
