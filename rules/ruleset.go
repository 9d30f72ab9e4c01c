package rules

import (
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// RuleSet is the versioned configuration every execution entry point receives.
// Treat a *RuleSet as immutable once built; use Clone to derive variants.
type RuleSet struct {
	Name string
	Fork Fork
	Gas  GasSchedule

	Sstore SstoreScheme

	// RefundQuotient caps the refund at gasUsed/RefundQuotient.
	RefundQuotient uint64
	// ForfeitGasOnError burns the remaining gas of a frame that ends in an error.
	ForfeitGasOnError bool
	// CallGasRetention is N in "all but one N-th" (EIP-150); 0 forwards exactly what was asked for.
	CallGasRetention uint64

	MaxCallDepth    int
	MaxCodeSize     int
	MaxInitCodeSize int // 0 means unchecked
	// MemoryLimit bounds a frame's memory in bytes, 0 means unbounded.
	MemoryLimit uint64
}

// ForFork builds the default rule set of a fork.
func ForFork(f Fork) *RuleSet {
	r := &RuleSet{
		Name:              f.String(),
		Fork:              f,
		Gas:               DefaultGasSchedule(f),
		Sstore:            SstoreLegacy,
		RefundQuotient:    params.RefundQuotient,
		ForfeitGasOnError: true,
		MaxCallDepth:      int(params.CallCreateDepth),
	}
	if f == Constantinople || f >= Istanbul {
		r.Sstore = SstoreNetMetered
	}
	if f >= TangerineWhistle {
		r.CallGasRetention = 64
	}
	if f >= SpuriousDragon {
		r.MaxCodeSize = params.MaxCodeSize
	}
	if f >= London {
		r.RefundQuotient = params.RefundQuotientEIP3529
	}
	if f >= Shanghai {
		r.MaxInitCodeSize = params.MaxInitCodeSize
	}
	return r
}

// Latest is the newest mainnet rule set. The EOF rule set has to be asked for
// by name.
func Latest() *RuleSet { return ForFork(Prague) }

// Clone returns an independent copy.
func (r *RuleSet) Clone() *RuleSet {
	cp := *r
	return &cp
}

// IsActive reports whether fork f is enabled by this rule set.
func (r *RuleSet) IsActive(f Fork) bool { return r.Fork >= f }

// Feature switches, named after the change that introduced them.

func (r *RuleSet) IsHomestead() bool      { return r.IsActive(Homestead) }
func (r *RuleSet) IsEIP150() bool         { return r.IsActive(TangerineWhistle) }
func (r *RuleSet) IsEIP158() bool         { return r.IsActive(SpuriousDragon) }
func (r *RuleSet) IsByzantium() bool      { return r.IsActive(Byzantium) }
func (r *RuleSet) IsConstantinople() bool { return r.IsActive(Constantinople) }
func (r *RuleSet) IsIstanbul() bool       { return r.IsActive(Istanbul) }
func (r *RuleSet) IsBerlin() bool         { return r.IsActive(Berlin) }
func (r *RuleSet) IsLondon() bool         { return r.IsActive(London) }
func (r *RuleSet) IsMerge() bool          { return r.IsActive(Paris) }
func (r *RuleSet) IsShanghai() bool       { return r.IsActive(Shanghai) }
func (r *RuleSet) IsCancun() bool         { return r.IsActive(Cancun) }
func (r *RuleSet) IsPrague() bool         { return r.IsActive(Prague) }
func (r *RuleSet) IsEOF() bool            { return r.IsActive(Osaka) }

// MaxRefund is the refund cap for a transaction that used gasUsed.
func (r *RuleSet) MaxRefund(gasUsed uint64) uint64 {
	if r.RefundQuotient == 0 {
		return gasUsed
	}
	return gasUsed / r.RefundQuotient
}

// Forwardable is the most a frame with available gas may pass on to a child:
// all but one N-th under EIP-150, everything otherwise.
func (r *RuleSet) Forwardable(available uint64) uint64 {
	if r.CallGasRetention == 0 {
		return available
	}
	return available - available/r.CallGasRetention
}

// CallGas is the gas a CALL asking for requested forwards from available.
// With retention the request is capped at Forwardable. Without it the request
// is taken verbatim and must be paid in full; ok is false when it does not fit
// in 64 bits.
func (r *RuleSet) CallGas(available uint64, requested *uint256.Int) (gas uint64, ok bool) {
	if r.CallGasRetention != 0 {
		capped := r.Forwardable(available)
		if !requested.IsUint64() || requested.Uint64() > capped {
			return capped, true
		}
	}
	if !requested.IsUint64() {
		return 0, false
	}
	return requested.Uint64(), true
}
