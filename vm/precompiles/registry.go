// Package precompiles holds the native contracts at the low addresses and
// the per-rule-set registry the engine consults before running code.
package precompiles

import (
	"sync"

	"github.com/colorfulnotion/evm/common"
	log "github.com/colorfulnotion/evm/log"
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vmerrors"
)

// Contract is a native contract. RequiredGas must not fail: input the
// contract rejects is priced normally and refused by Run.
type Contract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
	Name() string
}

// Registry maps addresses to the contracts active under one rule set.
type Registry struct {
	contracts map[common.Address]Contract
	addresses []common.Address
}

var registries sync.Map // *rules.RuleSet -> *Registry

// ForRules returns the registry for rs, built once per rule set.
func ForRules(rs *rules.RuleSet) *Registry {
	if r, ok := registries.Load(rs); ok {
		return r.(*Registry)
	}
	r, _ := registries.LoadOrStore(rs, build(rs))
	return r.(*Registry)
}

func build(rs *rules.RuleSet) *Registry {
	g := &rs.Gas
	r := &Registry{contracts: make(map[common.Address]Contract)}
	r.add(0x01, &ecrecover{g})
	r.add(0x02, &sha256hash{g})
	r.add(0x03, &ripemd160hash{g})
	r.add(0x04, &dataCopy{g})
	if rs.IsByzantium() {
		r.add(0x05, &bigModExp{g})
		r.add(0x06, &bn254Add{g})
		r.add(0x07, &bn254ScalarMul{g})
		r.add(0x08, &bn254Pairing{g})
	}
	if rs.IsIstanbul() {
		r.add(0x09, &blake2F{g})
	}
	if rs.IsCancun() {
		r.add(0x0a, &pointEvaluation{g})
	}
	if rs.IsPrague() {
		r.add(0x0b, &bls12381G1Add{g})
		r.add(0x0c, &bls12381G1MultiExp{g})
		r.add(0x0d, &bls12381G2Add{g})
		r.add(0x0e, &bls12381G2MultiExp{g})
		r.add(0x0f, &bls12381Pairing{g})
		r.add(0x10, &bls12381MapG1{g})
		r.add(0x11, &bls12381MapG2{g})
	}
	log.Debug(log.Precompile, "registry built", "rules", rs.Name, "count", len(r.addresses))
	return r
}

func (r *Registry) add(n byte, c Contract) {
	addr := common.BytesToAddress([]byte{n})
	r.contracts[addr] = c
	r.addresses = append(r.addresses, addr)
}

// Get returns the contract at addr, if one is active.
func (r *Registry) Get(addr common.Address) (Contract, bool) {
	c, ok := r.contracts[addr]
	return c, ok
}

// Addresses lists the active addresses in ascending order.
func (r *Registry) Addresses() []common.Address { return r.addresses }

// Run charges and runs c, returning the output and the gas left over.
func Run(c Contract, input []byte, gas uint64) ([]byte, uint64, error) {
	cost := c.RequiredGas(input)
	if gas < cost {
		return nil, 0, vmerrors.ErrGOutOfGas
	}
	gas -= cost
	out, err := c.Run(input)
	log.Trace(log.Precompile, c.Name(), "cost", cost, "in", len(input), "out", len(out), "err", err)
	return out, gas, err
}
