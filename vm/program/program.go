// Package program turns raw code into the immutable unit the interpreter runs:
// legacy code with its jump destination mask, or a validated EOF container.
package program

import (
	"github.com/colorfulnotion/evm/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Program is shared by reference between every frame running the same code.
type Program struct {
	Code []byte
	Hash common.Hash
	// K holds one flag byte per position of legacy code (instruction start,
	// block start, jump destination).
	K         []byte
	Container *Container
}

// NewLegacy analyses code as legacy bytecode. A zero hash is computed from code.
func NewLegacy(code []byte, hash common.Hash) *Program {
	return &Program{Code: code, Hash: hashOf(code, hash), K: analyzeLegacy(code)}
}

func hashOf(code []byte, hash common.Hash) common.Hash {
	if hash == (common.Hash{}) {
		return crypto.Keccak256Hash(code)
	}
	return hash
}

// New builds the unit for code. With eof set, code carrying the container
// magic must parse and validate as kind, and errors are structural.
func New(code []byte, hash common.Hash, eof bool, kind ContainerKind) (*Program, error) {
	if !eof || !HasEOFPrefix(code) {
		return NewLegacy(code, hash), nil
	}
	c, err := ParseContainer(code, false)
	if err != nil {
		return nil, err
	}
	if err := ValidateContainer(c, kind); err != nil {
		return nil, err
	}
	return &Program{Code: code, Hash: hashOf(code, hash), Container: c}, nil
}

// FromContainer wraps an already validated container, e.g. a subcontainer.
func FromContainer(c *Container) *Program {
	code := c.Bytes()
	return &Program{Code: code, Hash: crypto.Keccak256Hash(code), Container: c}
}

// IsEOF reports whether this unit runs under container rules.
func (p *Program) IsEOF() bool { return p.Container != nil }

// ValidJumpdest reports whether dest is a JUMPDEST outside push data.
func (p *Program) ValidJumpdest(dest uint64) bool {
	if dest >= uint64(len(p.K)) {
		return false
	}
	return p.K[dest]&kJumpdest != 0
}

// Len is the code length, for container code the length of the encoding.
func (p *Program) Len() int { return len(p.Code) }
