package vm

import (
	"fmt"

	"github.com/colorfulnotion/evm/common"
	log "github.com/colorfulnotion/evm/log"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// EntryKind names the change a journal entry undoes.
type EntryKind uint8

const (
	BalanceChange EntryKind = iota
	NonceChange
	StorageChange
	CodeChange
	AccountCreated
	AccountDestroyed
	LogEmitted
	WarmAccount
	WarmSlot
	AccountTouched
	TransientChange
)

var entryKindNames = [...]string{
	BalanceChange:    "balance",
	NonceChange:      "nonce",
	StorageChange:    "storage",
	CodeChange:       "code",
	AccountCreated:   "created",
	AccountDestroyed: "destroyed",
	LogEmitted:       "log",
	WarmAccount:      "warm_account",
	WarmSlot:         "warm_slot",
	AccountTouched:   "touched",
	TransientChange:  "transient",
}

func (k EntryKind) String() string {
	if int(k) < len(entryKindNames) {
		return entryKindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

var ripemdAddress = common.BytesToAddress([]byte{3})

// JournalEntry is one recorded change together with what it takes to undo it.
type JournalEntry struct {
	Kind    EntryKind
	Address common.Address
	Key     common.Hash

	prevBalance *uint256.Int
	prevNonce   uint64
	prevValue   common.Hash
	prevCode    []byte
	prevExisted bool
}

func (e *JournalEntry) revert(h Host, s *Substate) {
	switch e.Kind {
	case BalanceChange:
		h.SetBalance(e.Address, e.prevBalance)
	case NonceChange:
		h.SetNonce(e.Address, e.prevNonce)
	case StorageChange:
		h.SetState(e.Address, e.Key, e.prevValue)
	case CodeChange:
		h.SetCode(e.Address, e.prevCode)
	case AccountCreated:
		delete(s.created, e.Address)
		if !e.prevExisted {
			h.DeleteAccount(e.Address)
		}
	case AccountDestroyed:
		delete(s.selfDestructs, e.Address)
	case LogEmitted:
		s.logs = s.logs[:len(s.logs)-1]
	case WarmAccount:
		delete(s.warmAccounts, e.Address)
	case WarmSlot:
		delete(s.warmSlots[e.Address], e.Key)
	case AccountTouched:
		// Mainnet block 2675119 left the RIPEMD-160 touch in place after an
		// out-of-gas revert, and the empty account was cleared.
		if e.Address != ripemdAddress {
			delete(s.touched, e.Address)
		}
	case TransientChange:
		s.setTransient(e.Address, e.Key, e.prevValue)
	}
}

// Journal is a flat log of changes with a stack of nested checkpoint markers.
// Rewinding to a marker undoes, newest first, every entry recorded after it;
// committing a marker just forgets it.
type Journal struct {
	host    Host
	sub     *Substate
	entries []JournalEntry
	marks   []int
}

func newJournal(h Host, s *Substate) *Journal {
	return &Journal{host: h, sub: s}
}

// Checkpoint opens a nested scope and returns its marker.
func (j *Journal) Checkpoint() int {
	j.marks = append(j.marks, len(j.entries))
	log.Trace(log.Journal, "Checkpoint", "depth", len(j.marks), "entries", len(j.entries))
	return len(j.marks) - 1
}

// Rewind undoes everything since the checkpoint cp and closes it.
func (j *Journal) Rewind(cp int) {
	j.mustBeInnermost(cp)
	start := j.marks[cp]
	for i := len(j.entries) - 1; i >= start; i-- {
		j.entries[i].revert(j.host, j.sub)
	}
	log.Trace(log.Journal, "Rewind", "depth", cp+1, "undone", len(j.entries)-start)
	clear(j.entries[start:])
	j.entries = j.entries[:start]
	j.marks = j.marks[:cp]
}

// Commit closes the checkpoint cp keeping its entries, which then rewind
// with the enclosing scope.
func (j *Journal) Commit(cp int) {
	j.mustBeInnermost(cp)
	j.marks = j.marks[:cp]
	log.Trace(log.Journal, "Commit", "depth", cp+1, "entries", len(j.entries))
}

func (j *Journal) mustBeInnermost(cp int) {
	if cp != len(j.marks)-1 {
		panic(fmt.Sprintf("journal: checkpoint %d is not innermost (%d open)", cp, len(j.marks)))
	}
}

// Len is the number of live entries.
func (j *Journal) Len() int { return len(j.entries) }

// Depth is the number of open checkpoints.
func (j *Journal) Depth() int { return len(j.marks) }

// Entries exposes the live entries for inspection.
func (j *Journal) Entries() []JournalEntry { return j.entries }

func (j *Journal) record(e JournalEntry) {
	j.entries = append(j.entries, e)
}

// State mutations. Each records its inverse then applies the change to the host.

func (j *Journal) SetBalance(addr common.Address, amount *uint256.Int) {
	prev := new(uint256.Int).Set(j.host.GetBalance(addr))
	j.record(JournalEntry{Kind: BalanceChange, Address: addr, prevBalance: prev})
	j.host.SetBalance(addr, amount)
	j.Touch(addr)
}

func (j *Journal) SetNonce(addr common.Address, nonce uint64) {
	j.record(JournalEntry{Kind: NonceChange, Address: addr, prevNonce: j.host.GetNonce(addr)})
	j.host.SetNonce(addr, nonce)
}

func (j *Journal) SetState(addr common.Address, key, value common.Hash) {
	j.record(JournalEntry{Kind: StorageChange, Address: addr, Key: key, prevValue: j.host.GetState(addr, key)})
	j.host.SetState(addr, key, value)
}

func (j *Journal) SetCode(addr common.Address, code []byte) {
	j.record(JournalEntry{Kind: CodeChange, Address: addr, prevCode: j.host.GetCode(addr)})
	j.host.SetCode(addr, code)
}

// CreateAccount makes addr exist, keeping any balance it already holds. A
// contract account is also marked as created in this transaction.
func (j *Journal) CreateAccount(addr common.Address, contract bool) {
	j.record(JournalEntry{Kind: AccountCreated, Address: addr, prevExisted: j.host.Exist(addr)})
	j.host.CreateAccount(addr)
	if contract {
		j.sub.created[addr] = struct{}{}
	}
}

func (j *Journal) SelfDestruct(addr common.Address) {
	if j.sub.HasSelfDestructed(addr) {
		return
	}
	j.record(JournalEntry{Kind: AccountDestroyed, Address: addr})
	j.sub.selfDestructs[addr] = struct{}{}
}

func (j *Journal) AddLog(l *types.Log) {
	j.record(JournalEntry{Kind: LogEmitted, Address: l.Address})
	j.sub.logs = append(j.sub.logs, l)
}

// WarmAccount marks addr warm and reports whether it was cold.
func (j *Journal) WarmAccount(addr common.Address) bool {
	if j.sub.IsWarmAccount(addr) {
		return false
	}
	j.record(JournalEntry{Kind: WarmAccount, Address: addr})
	j.sub.warmAccounts[addr] = struct{}{}
	return true
}

// WarmSlot marks the slot warm and reports whether it was cold.
func (j *Journal) WarmSlot(addr common.Address, slot common.Hash) bool {
	if j.sub.IsWarmSlot(addr, slot) {
		return false
	}
	j.record(JournalEntry{Kind: WarmSlot, Address: addr, Key: slot})
	m, ok := j.sub.warmSlots[addr]
	if !ok {
		m = make(map[common.Hash]struct{})
		j.sub.warmSlots[addr] = m
	}
	m[slot] = struct{}{}
	return true
}

func (j *Journal) Touch(addr common.Address) {
	if _, ok := j.sub.touched[addr]; ok {
		return
	}
	j.record(JournalEntry{Kind: AccountTouched, Address: addr})
	j.sub.touched[addr] = struct{}{}
}

func (j *Journal) SetTransient(addr common.Address, key, value common.Hash) {
	j.record(JournalEntry{Kind: TransientChange, Address: addr, Key: key, prevValue: j.sub.GetTransient(addr, key)})
	j.sub.setTransient(addr, key, value)
}
