package state

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/colorfulnotion/evm/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// GenesisAccount is one account of an Alloc, in the usual genesis JSON shape.
type GenesisAccount struct {
	Balance *math.HexOrDecimal256       `json:"balance"`
	Nonce   math.HexOrDecimal64         `json:"nonce,omitempty"`
	Code    hexutil.Bytes               `json:"code,omitempty"`
	Storage map[common.Hash]common.Hash `json:"storage,omitempty"`
}

// Alloc is a set of accounts, used both as a prestate and as a state dump.
type Alloc map[common.Address]GenesisAccount

// ReadAlloc loads an Alloc from a JSON file.
func ReadAlloc(path string) (Alloc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alloc: %w", err)
	}
	var a Alloc
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse alloc %s: %w", path, err)
	}
	return a, nil
}

func (a Alloc) JSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// InsertAlloc loads every account of a into the cache, replacing what the
// database holds for it. The accounts count as changes, so Commit writes them
// with their code and slots.
func (c *Cache) InsertAlloc(a Alloc) {
	for addr, ga := range a {
		info := NewAccount()
		if ga.Balance != nil {
			info.Balance, _ = uint256.FromBig((*big.Int)(ga.Balance))
		}
		info.Nonce = uint64(ga.Nonce)
		info.CodeHash = c.InsertCode(ga.Code)
		if info.CodeHash != types.EmptyCodeHash {
			c.newCode[info.CodeHash] = struct{}{}
		}
		c.InsertAccountWithStorage(addr, info, ga.Storage)
		acc := c.accounts[addr]
		acc.dirty, acc.wiped = true, true
	}
}

func genesisAccount(info *Account, code []byte, storage map[common.Hash]common.Hash) GenesisAccount {
	ga := GenesisAccount{
		Balance: (*math.HexOrDecimal256)(info.Balance.ToBig()),
		Nonce:   math.HexOrDecimal64(info.Nonce),
		Code:    code,
	}
	for k, v := range storage {
		if v == (common.Hash{}) {
			continue
		}
		if ga.Storage == nil {
			ga.Storage = make(map[common.Hash]common.Hash)
		}
		ga.Storage[k] = v
	}
	return ga
}

// Dump returns the existing accounts the cache knows about, with the slots
// it has loaded or written. Unloaded database slots are not included.
func (c *Cache) Dump() Alloc {
	out := make(Alloc)
	for addr, acc := range c.accounts {
		if acc.info == nil {
			continue
		}
		storage := make(map[common.Hash]common.Hash, len(acc.storage))
		for k, s := range acc.storage {
			storage[k] = s.present
		}
		out[addr] = genesisAccount(acc.info, c.GetCode(addr), storage)
	}
	return out
}

// Dump returns every account in the store.
func (s *Store) Dump() (Alloc, error) {
	addrs, err := s.Accounts()
	if err != nil {
		return nil, err
	}
	out := make(Alloc, len(addrs))
	for _, addr := range addrs {
		info, err := s.Basic(addr)
		if err != nil {
			return nil, err
		}
		var code []byte
		if info.CodeHash != types.EmptyCodeHash {
			if code, err = s.CodeByHash(info.CodeHash); err != nil {
				return nil, err
			}
		}
		storage, err := s.StorageOf(addr)
		if err != nil {
			return nil, err
		}
		out[addr] = genesisAccount(info, code, storage)
	}
	return out, nil
}
