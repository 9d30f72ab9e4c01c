// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/holiman/uint256"
)

// Gas costs
const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastishStep uint64 = 4
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20
)

// GasMeter tracks one frame's gas. Refunds are frame local and signed: a
// child may undo a refund its parent granted. They only reach the parent
// when the child halts normally.
type GasMeter struct {
	limit     uint64
	remaining uint64
	refund    int64
}

func NewGasMeter(limit uint64) GasMeter {
	return GasMeter{limit: limit, remaining: limit}
}

// Charge deducts amount, failing with OutOfGas and leaving the meter untouched
// if it exceeds what is left.
func (g *GasMeter) Charge(amount uint64) error {
	if amount > g.remaining {
		return vmerrors.ErrGOutOfGas
	}
	g.remaining -= amount
	return nil
}

// ReturnGas credits gas a child frame did not use.
func (g *GasMeter) ReturnGas(amount uint64) {
	g.remaining += amount
}

// Refund adds to the refund counter.
func (g *GasMeter) Refund(amount uint64) {
	g.refund += int64(amount)
}

// RemoveRefund subtracts from the refund counter.
func (g *GasMeter) RemoveRefund(amount uint64) {
	g.refund -= int64(amount)
}

// AddRefunds folds a halted child's refund counter into this one.
func (g *GasMeter) AddRefunds(r int64) {
	g.refund += r
}

// ConsumeAll zeroes the remaining gas.
func (g *GasMeter) ConsumeAll() {
	g.remaining = 0
}

func (g *GasMeter) Remaining() uint64 { return g.remaining }
func (g *GasMeter) Limit() uint64     { return g.limit }
func (g *GasMeter) Spent() uint64     { return g.limit - g.remaining }
func (g *GasMeter) Refunded() int64   { return g.refund }

// callGas returns the gas forwarded to a child. Under a retention rule the
// base cost is paid first and the request capped at what remains.
func callGas(rs *rules.RuleSet, availableGas, base uint64, callCost *uint256.Int) (uint64, error) {
	if rs.CallGasRetention != 0 {
		if availableGas < base {
			return 0, vmerrors.ErrGOutOfGas
		}
		availableGas -= base
	}
	gas, ok := rs.CallGas(availableGas, callCost)
	if !ok {
		return 0, vmerrors.ErrGGasUintOverflow
	}
	return gas, nil
}

// calcMemSize64 calculates the required memory size, and returns
// the size and whether the result overflowed uint64
func calcMemSize64(off, l *uint256.Int) (uint64, bool) {
	if !l.IsUint64() {
		return 0, true
	}
	return calcMemSize64WithUint(off, l.Uint64())
}

// calcMemSize64WithUint calculates the required memory size, and returns
// the size and whether the result overflowed uint64
// Identical to calcMemSize64, but length is a uint64
func calcMemSize64WithUint(off *uint256.Int, length64 uint64) (uint64, bool) {
	// if length is zero, memsize is always zero, regardless of offset
	if length64 == 0 {
		return 0, false
	}
	// Check that offset doesn't overflow
	offset64, overflow := off.Uint64WithOverflow()
	if overflow {
		return 0, true
	}
	val := offset64 + length64
	// if value < either of it's parts, then it overflowed
	return val, val < offset64
}

// getData returns a slice from the data based on the start and size and pads
// up to size with zero's. This function is overflow safe.
func getData(data []byte, start uint64, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length || end < start {
		end = length
	}
	out := make([]byte, size)
	copy(out, data[start:end])
	return out
}
