package vm

import (
	"github.com/colorfulnotion/evm/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Substate is the per-transaction bookkeeping that is not account state:
// access lists, transient storage, logs, touched, created and destructed accounts.
// Every change to it goes through the Journal so it rewinds with the state.
type Substate struct {
	warmAccounts  map[common.Address]struct{}
	warmSlots     map[common.Address]map[common.Hash]struct{}
	transient     map[common.Address]map[common.Hash]common.Hash
	logs          []*types.Log
	touched       map[common.Address]struct{}
	created       map[common.Address]struct{}
	selfDestructs map[common.Address]struct{}
}

func newSubstate() *Substate {
	return &Substate{
		warmAccounts:  make(map[common.Address]struct{}),
		warmSlots:     make(map[common.Address]map[common.Hash]struct{}),
		transient:     make(map[common.Address]map[common.Hash]common.Hash),
		touched:       make(map[common.Address]struct{}),
		created:       make(map[common.Address]struct{}),
		selfDestructs: make(map[common.Address]struct{}),
	}
}

func (s *Substate) IsWarmAccount(addr common.Address) bool {
	_, ok := s.warmAccounts[addr]
	return ok
}

func (s *Substate) IsWarmSlot(addr common.Address, slot common.Hash) bool {
	_, ok := s.warmSlots[addr][slot]
	return ok
}

func (s *Substate) GetTransient(addr common.Address, key common.Hash) common.Hash {
	return s.transient[addr][key]
}

func (s *Substate) setTransient(addr common.Address, key, value common.Hash) {
	m, ok := s.transient[addr]
	if !ok {
		m = make(map[common.Hash]common.Hash)
		s.transient[addr] = m
	}
	if value == (common.Hash{}) {
		delete(m, key)
		return
	}
	m[key] = value
}

func (s *Substate) Logs() []*types.Log { return s.logs }

func (s *Substate) WasCreated(addr common.Address) bool {
	_, ok := s.created[addr]
	return ok
}

func (s *Substate) HasSelfDestructed(addr common.Address) bool {
	_, ok := s.selfDestructs[addr]
	return ok
}

// Touched returns the touched accounts in no particular order.
func (s *Substate) Touched() []common.Address {
	out := make([]common.Address, 0, len(s.touched))
	for a := range s.touched {
		out = append(out, a)
	}
	return out
}
