package vm

import (
	"math/big"

	"github.com/colorfulnotion/evm/common"
	"github.com/holiman/uint256"
)

// Host is the account state the engine runs against. It answers
// synchronously and never sees checkpoints: every mutation the engine makes is
// recorded in its journal first, and undone through these same setters.
type Host interface {
	Exist(addr common.Address) bool
	// Empty reports zero nonce, zero balance and no code (EIP-161).
	Empty(addr common.Address) bool
	CreateAccount(addr common.Address)
	DeleteAccount(addr common.Address)

	// GetBalance returns zero, never nil, for a missing account.
	GetBalance(addr common.Address) *uint256.Int
	SetBalance(addr common.Address, amount *uint256.Int)
	GetNonce(addr common.Address) uint64
	SetNonce(addr common.Address, nonce uint64)

	GetCode(addr common.Address) []byte
	GetCodeHash(addr common.Address) common.Hash
	SetCode(addr common.Address, code []byte)

	GetState(addr common.Address, key common.Hash) common.Hash
	// GetCommittedState is the value the slot had when the transaction began.
	GetCommittedState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key, value common.Hash)
	// HasStorage reports any non-zero slot, for create collision checks.
	HasStorage(addr common.Address) bool

	GetBlockHash(number uint64) common.Hash
}

// BlockContext is the block environment of a transaction.
type BlockContext struct {
	Coinbase    common.Address
	GasLimit    uint64
	BlockNumber *big.Int
	Time        uint64
	Difficulty  *big.Int
	Random      *common.Hash // post-merge PREVRANDAO
	BaseFee     *big.Int
	BlobBaseFee *big.Int
	ChainID     *big.Int
}

// TxContext is the transaction environment.
type TxContext struct {
	Origin     common.Address
	GasPrice   *big.Int
	BlobHashes []common.Hash
}

func bigToWord(b *big.Int) *uint256.Int {
	if b == nil {
		return new(uint256.Int)
	}
	v, _ := uint256.FromBig(b)
	return v
}
