package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/log"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Key layout. Account and storage keys are prefixed by the address so that
// deleting an account can sweep its slots with one range scan.
const (
	prefixAccount   byte = 'a'
	prefixStorage   byte = 's'
	prefixCode      byte = 'c'
	prefixBlockHash byte = 'h'
)

// Account is the basic record of an account: everything but code and storage.
type Account struct {
	Nonce    uint64
	Balance  *uint256.Int
	CodeHash common.Hash
}

// NewAccount returns an empty account with no code.
func NewAccount() *Account {
	return &Account{Balance: new(uint256.Int), CodeHash: types.EmptyCodeHash}
}

func (a *Account) Copy() *Account {
	return &Account{Nonce: a.Nonce, Balance: new(uint256.Int).Set(a.Balance), CodeHash: a.CodeHash}
}

// IsEmpty is the EIP-161 notion of empty.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && (a.CodeHash == types.EmptyCodeHash || a.CodeHash == common.Hash{})
}

// accountRLP is the stored form of an Account.
type accountRLP struct {
	Nonce    uint64
	Balance  *big.Int
	CodeHash []byte
}

// Database is what a Cache reads through to.
type Database interface {
	// Basic returns nil, nil when the account does not exist.
	Basic(addr common.Address) (*Account, error)
	CodeByHash(hash common.Hash) ([]byte, error)
	Storage(addr common.Address, key common.Hash) (common.Hash, error)
	// HasStorage reports any stored slot for addr.
	HasStorage(addr common.Address) (bool, error)
	BlockHash(number uint64) (common.Hash, error)
}

// Writer persists a committed change set.
type Writer interface {
	Database
	Apply(cs *ChangeSet) error
}

// ChangeSet is what Cache.Commit hands to a Writer.
type ChangeSet struct {
	Accounts  map[common.Address]*Account // nil value deletes the account
	Storage   map[common.Address]map[common.Hash]common.Hash
	Code      map[common.Hash][]byte
	Destroyed []common.Address // storage wiped before Storage is applied
}

// Store is a goleveldb Database. An empty path gives an in-memory store.
// Thread-safe: LevelDB handles its own synchronization.
type Store struct {
	db *leveldb.DB
}

func OpenStore(path string) (*Store, error) {
	var (
		db  *leveldb.DB
		err error
	)
	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open state database at %q: %w", path, err)
	}
	log.Debug(log.State, "state database opened", "path", path)
	return &Store{db: db}, nil
}

// NewMemoryStore creates an in-memory Store for testing.
func NewMemoryStore() *Store {
	s, err := OpenStore("")
	if err != nil {
		// the memory backend cannot fail to open
		panic(err)
	}
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

func accountKey(addr common.Address) []byte {
	return append([]byte{prefixAccount}, addr.Bytes()...)
}

func storagePrefix(addr common.Address) []byte {
	return append([]byte{prefixStorage}, addr.Bytes()...)
}

func storageKey(addr common.Address, key common.Hash) []byte {
	return append(storagePrefix(addr), key.Bytes()...)
}

func codeKey(hash common.Hash) []byte {
	return append([]byte{prefixCode}, hash.Bytes()...)
}

func blockHashKey(number uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte{prefixBlockHash}, number)
}

// get returns (nil, nil) for a missing key.
func (s *Store) get(key []byte) ([]byte, error) {
	data, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %x: %w", key, err)
	}
	return data, nil
}

func (s *Store) Basic(addr common.Address) (*Account, error) {
	data, err := s.get(accountKey(addr))
	if err != nil || data == nil {
		return nil, err
	}
	var enc accountRLP
	if err := rlp.DecodeBytes(data, &enc); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", addr, err)
	}
	balance, overflow := uint256.FromBig(enc.Balance)
	if overflow {
		return nil, fmt.Errorf("decode account %s: balance overflows 256 bits", addr)
	}
	return &Account{Nonce: enc.Nonce, Balance: balance, CodeHash: common.BytesToHash(enc.CodeHash)}, nil
}

func (s *Store) CodeByHash(hash common.Hash) ([]byte, error) {
	if hash == types.EmptyCodeHash || hash == (common.Hash{}) {
		return nil, nil
	}
	return s.get(codeKey(hash))
}

func (s *Store) Storage(addr common.Address, key common.Hash) (common.Hash, error) {
	data, err := s.get(storageKey(addr, key))
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(data), nil
}

func (s *Store) HasStorage(addr common.Address) (bool, error) {
	iter := s.db.NewIterator(util.BytesPrefix(storagePrefix(addr)), nil)
	defer iter.Release()
	found := iter.Next()
	return found, iter.Error()
}

func (s *Store) BlockHash(number uint64) (common.Hash, error) {
	data, err := s.get(blockHashKey(number))
	return common.BytesToHash(data), err
}

func (s *Store) PutBlockHash(number uint64, h common.Hash) error {
	return s.db.Put(blockHashKey(number), h.Bytes(), nil)
}

// Apply writes cs in one batch.
func (s *Store) Apply(cs *ChangeSet) error {
	batch := new(leveldb.Batch)
	for _, addr := range cs.Destroyed {
		if err := s.sweepStorage(batch, addr); err != nil {
			return err
		}
	}
	for addr, acc := range cs.Accounts {
		if acc == nil {
			batch.Delete(accountKey(addr))
			if err := s.sweepStorage(batch, addr); err != nil {
				return err
			}
			continue
		}
		data, err := rlp.EncodeToBytes(&accountRLP{Nonce: acc.Nonce, Balance: acc.Balance.ToBig(), CodeHash: acc.CodeHash.Bytes()})
		if err != nil {
			return fmt.Errorf("encode account %s: %w", addr, err)
		}
		batch.Put(accountKey(addr), data)
	}
	for hash, code := range cs.Code {
		batch.Put(codeKey(hash), code)
	}
	for addr, slots := range cs.Storage {
		if acc, ok := cs.Accounts[addr]; ok && acc == nil {
			continue
		}
		for key, value := range slots {
			if value == (common.Hash{}) {
				batch.Delete(storageKey(addr, key))
			} else {
				batch.Put(storageKey(addr, key), value.Bytes())
			}
		}
	}
	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("write change set: %w", err)
	}
	log.Debug(log.State, "change set applied", "accounts", len(cs.Accounts), "code", len(cs.Code), "batch", batch.Len())
	return nil
}

func (s *Store) sweepStorage(batch *leveldb.Batch, addr common.Address) error {
	iter := s.db.NewIterator(util.BytesPrefix(storagePrefix(addr)), nil)
	defer iter.Release()
	for iter.Next() {
		batch.Delete(common.CopyBytes(iter.Key()))
	}
	return iter.Error()
}

// Accounts lists every stored address, in key order.
func (s *Store) Accounts() ([]common.Address, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{prefixAccount}), nil)
	defer iter.Release()
	var out []common.Address
	for iter.Next() {
		out = append(out, common.BytesToAddress(iter.Key()[1:]))
	}
	return out, iter.Error()
}

// StorageOf returns every stored slot of addr.
func (s *Store) StorageOf(addr common.Address) (map[common.Hash]common.Hash, error) {
	prefix := storagePrefix(addr)
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	out := make(map[common.Hash]common.Hash)
	for iter.Next() {
		out[common.BytesToHash(iter.Key()[len(prefix):])] = common.BytesToHash(iter.Value())
	}
	return out, iter.Error()
}
