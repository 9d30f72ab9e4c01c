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
	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
)

// memoryGasCost prices growing mem to newMemSize; the interpreter performs
// the resize once the whole instruction cost is paid.
func memoryGasCost(mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	_, cost, err := mem.expansion(newMemSize)
	return cost, err
}

// memoryCopierGas creates the gas function for instructions that copy a
// number of bytes given at stack position stackpos into memory.
func memoryCopierGas(stackpos int) gasFunc {
	return func(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		words, overflow := stack.Back(stackpos).Uint64WithOverflow()
		if overflow {
			return 0, vmerrors.ErrGGasUintOverflow
		}
		if words, overflow = math.SafeMul(toWordSize(words), evm.gas.Copy); overflow {
			return 0, vmerrors.ErrGGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, words); overflow {
			return 0, vmerrors.ErrGGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallDataCopy   = memoryCopierGas(2)
	gasCodeCopy       = memoryCopierGas(2)
	gasMcopy          = memoryCopierGas(2)
	gasExtCodeCopy    = memoryCopierGas(3)
	gasReturnDataCopy = memoryCopierGas(2)
	gasDataCopy       = memoryCopierGas(2)
)

func pureMemoryGascost(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return memoryGasCost(mem, memorySize)
}

var (
	gasReturn         = pureMemoryGascost
	gasRevert         = pureMemoryGascost
	gasMLoad          = pureMemoryGascost
	gasMStore8        = pureMemoryGascost
	gasMStore         = pureMemoryGascost
	gasCreate         = pureMemoryGascost
	gasReturnContract = pureMemoryGascost
)

func gasSStoreLegacy(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var (
		g       = evm.gas
		y, x    = stack.Back(1), stack.Back(0)
		current = evm.host.GetState(f.address, x.Bytes32())
	)
	switch {
	case current == (common.Hash{}) && y.Sign() != 0: // 0 => non 0
		return g.SstoreSet, nil
	case current != (common.Hash{}) && y.Sign() == 0: // non 0 => 0
		f.Gas.Refund(g.SstoreClearRefund)
		return g.SstoreReset, nil
	default: // non 0 => non 0 (or 0 => 0)
		return g.SstoreReset, nil
	}
}

// gasSStoreNet implements dirty-slot metering. The schedule carries the
// numbers of each generation: EIP-1283, EIP-2200 with its stipend sentry,
// EIP-2929 warm reads with a cold surcharge, and the EIP-3529 refund.
//
//  1. If current value equals new value (this is a no-op), SstoreNoop is deducted.
//  2. If current value does not equal new value
//     2.1. If original value equals current value (this storage slot has not been changed by the current execution context)
//     2.1.1. If original value is 0, SstoreSet is deducted.
//     2.1.2. Otherwise, SstoreReset is deducted. If new value is 0, add SstoreClearRefund to refund counter.
//     2.2. If original value does not equal current value (this storage slot is dirty), SstoreNoop is deducted. Apply both of the following clauses.
//     2.2.1. If original value is not 0
//     2.2.1.1. If current value is 0 (also means that new value is not 0), remove SstoreClearRefund from refund counter.
//     2.2.1.2. If new value is 0 (also means that current value is not 0), add SstoreClearRefund to refund counter.
//     2.2.2. If original value equals new value (this storage slot is reset)
//     2.2.2.1. If original value is 0, add SstoreSet - SstoreNoop to refund counter.
//     2.2.2.2. Otherwise, add SstoreReset - SstoreNoop to refund counter.
func gasSStoreNet(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	g := evm.gas
	if g.SstoreSentry != 0 && f.Gas.Remaining() <= g.SstoreSentry {
		return 0, vmerrors.ErrGInsufficientStipend
	}
	var (
		y, x = stack.Back(1), stack.Back(0)
		slot = common.Hash(x.Bytes32())
		cost uint64
	)
	if evm.rules.IsBerlin() && evm.journal.WarmSlot(f.address, slot) {
		cost = g.ColdSload
	}
	current := evm.host.GetState(f.address, slot)
	value := common.Hash(y.Bytes32())

	if current == value { // noop (1)
		return cost + g.SstoreNoop, nil
	}
	original := evm.host.GetCommittedState(f.address, slot)
	if original == current {
		if original == (common.Hash{}) { // create slot (2.1.1)
			return cost + g.SstoreSet, nil
		}
		if value == (common.Hash{}) { // delete slot (2.1.2b)
			f.Gas.Refund(g.SstoreClearRefund)
		}
		return cost + g.SstoreReset, nil // write existing slot (2.1.2)
	}
	if original != (common.Hash{}) {
		if current == (common.Hash{}) { // recreate slot (2.2.1.1)
			f.Gas.RemoveRefund(g.SstoreClearRefund)
		} else if value == (common.Hash{}) { // delete slot (2.2.1.2)
			f.Gas.Refund(g.SstoreClearRefund)
		}
	}
	if original == value {
		if original == (common.Hash{}) { // reset to original inexistent slot (2.2.2.1)
			f.Gas.Refund(g.SstoreSet - g.SstoreNoop)
		} else { // reset to original existing slot (2.2.2.2)
			f.Gas.Refund(g.SstoreReset - g.SstoreNoop)
		}
	}
	return cost + g.SstoreNoop, nil // dirty update (2.2)
}

// gasSLoadEIP2929 charges the warm read, or the cold read on first access.
func gasSLoadEIP2929(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	slot := common.Hash(stack.peek().Bytes32())
	if evm.journal.WarmSlot(f.address, slot) {
		return evm.gas.ColdSload, nil
	}
	return evm.gas.WarmStorageRead, nil
}

// gasAccountCheck is the cold surcharge of BALANCE, EXTCODESIZE and
// EXTCODEHASH; the warm price is their constant gas.
func gasAccountCheck(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	addr := common.Address(stack.peek().Bytes20())
	if evm.journal.WarmAccount(addr) {
		return evm.gas.ColdAccountAccess - evm.gas.WarmStorageRead, nil
	}
	return 0, nil
}

func gasExtCodeCopyEIP2929(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasExtCodeCopy(evm, f, stack, mem, memorySize)
	if err != nil {
		return 0, err
	}
	addr := common.Address(stack.peek().Bytes20())
	if evm.journal.WarmAccount(addr) {
		var overflow bool
		if gas, overflow = math.SafeAdd(gas, evm.gas.ColdAccountAccess-evm.gas.WarmStorageRead); overflow {
			return 0, vmerrors.ErrGGasUintOverflow
		}
	}
	return gas, nil
}

func makeGasLog(n uint64) gasFunc {
	return func(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		requestedSize, overflow := stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, vmerrors.ErrGGasUintOverflow
		}
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		g := evm.gas
		if gas, overflow = math.SafeAdd(gas, g.Log); overflow {
			return 0, vmerrors.ErrGGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, n*g.LogTopic); overflow {
			return 0, vmerrors.ErrGGasUintOverflow
		}
		var memorySizeGas uint64
		if memorySizeGas, overflow = math.SafeMul(requestedSize, g.LogData); overflow {
			return 0, vmerrors.ErrGGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, memorySizeGas); overflow {
			return 0, vmerrors.ErrGGasUintOverflow
		}
		return gas, nil
	}
}

func gasKeccak256(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	return addWordGas(gas, stack.Back(1), evm.gas.Keccak256Word)
}

// addWordGas adds perWord for every 32-byte word of size to gas.
func addWordGas(gas uint64, size *uint256.Int, perWord uint64) (uint64, error) {
	n, overflow := size.Uint64WithOverflow()
	if overflow {
		return 0, vmerrors.ErrGGasUintOverflow
	}
	if n, overflow = math.SafeMul(toWordSize(n), perWord); overflow {
		return 0, vmerrors.ErrGGasUintOverflow
	}
	if gas, overflow = math.SafeAdd(gas, n); overflow {
		return 0, vmerrors.ErrGGasUintOverflow
	}
	return gas, nil
}

func gasCreate2(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	return addWordGas(gas, stack.Back(2), evm.gas.Keccak256Word)
}

// initcodeGas enforces the init code limit and prices its words (EIP-3860).
func initcodeGas(evm *EVM, gas uint64, size *uint256.Int) (uint64, error) {
	n, overflow := size.Uint64WithOverflow()
	if overflow {
		return 0, vmerrors.ErrGGasUintOverflow
	}
	if limit := evm.rules.MaxInitCodeSize; limit > 0 && n > uint64(limit) {
		return 0, vmerrors.ErrCMaxInitCodeSize
	}
	return addWordGas(gas, size, evm.gas.InitCodeWord)
}

func gasCreateEIP3860(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	return initcodeGas(evm, gas, stack.Back(2))
}

func gasCreate2EIP3860(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasCreate2(evm, f, stack, mem, memorySize)
	if err != nil {
		return 0, err
	}
	return initcodeGas(evm, gas, stack.Back(2))
}

func gasExp(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	expByteLen := uint64((stack.Back(1).BitLen() + 7) / 8)
	gas, overflow := math.SafeMul(expByteLen, evm.gas.ExpByte)
	if overflow {
		return 0, vmerrors.ErrGGasUintOverflow
	}
	if gas, overflow = math.SafeAdd(gas, evm.gas.Exp); overflow {
		return 0, vmerrors.ErrGGasUintOverflow
	}
	return gas, nil
}

// gasCall prices a CALL and fixes the gas forwarded to the child in
// evm.callGasTemp.
func gasCall(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var (
		g              = evm.gas
		gas            uint64
		transfersValue = !stack.Back(2).IsZero()
		address        = common.Address(stack.Back(1).Bytes20())
	)
	if evm.rules.IsEIP158() {
		if transfersValue && evm.host.Empty(address) {
			gas += g.CallNewAccount
		}
	} else if !evm.host.Exist(address) {
		gas += g.CallNewAccount
	}
	if transfersValue {
		gas += g.CallValueTransfer
	}
	return finishCallGas(evm, f, stack, mem, memorySize, gas)
}

func gasCallCode(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var gas uint64
	if stack.Back(2).Sign() != 0 {
		gas += evm.gas.CallValueTransfer
	}
	return finishCallGas(evm, f, stack, mem, memorySize, gas)
}

func gasDelegateCall(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return finishCallGas(evm, f, stack, mem, memorySize, 0)
}

var gasStaticCall = gasDelegateCall

func finishCallGas(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize, gas uint64) (uint64, error) {
	memoryGas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, memoryGas); overflow {
		return 0, vmerrors.ErrGGasUintOverflow
	}
	evm.callGasTemp, err = callGas(evm.rules, f.Gas.Remaining(), gas, stack.Back(0))
	if err != nil {
		return 0, err
	}
	if gas, overflow = math.SafeAdd(gas, evm.callGasTemp); overflow {
		return 0, vmerrors.ErrGGasUintOverflow
	}
	return gas, nil
}

// makeCallVariantGasCallEIP2929 adds the cold account surcharge to a call
// gas function. The surcharge is deducted before the inner function runs so
// the forwarded gas is computed from what is really left, then handed back
// and included in the returned cost instead.
func makeCallVariantGasCallEIP2929(oldCalculator gasFunc) gasFunc {
	return func(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		addr := common.Address(stack.Back(1).Bytes20())
		cold := evm.journal.WarmAccount(addr)
		coldCost := evm.gas.ColdAccountAccess - evm.gas.WarmStorageRead
		if cold {
			if err := f.Gas.Charge(coldCost); err != nil {
				return 0, err
			}
		}
		gas, err := oldCalculator(evm, f, stack, mem, memorySize)
		if !cold || err != nil {
			return gas, err
		}
		f.Gas.ReturnGas(coldCost)
		var overflow bool
		if gas, overflow = math.SafeAdd(gas, coldCost); overflow {
			return 0, vmerrors.ErrGGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallEIP2929         = makeCallVariantGasCallEIP2929(gasCall)
	gasDelegateCallEIP2929 = makeCallVariantGasCallEIP2929(gasDelegateCall)
	gasStaticCallEIP2929   = makeCallVariantGasCallEIP2929(gasStaticCall)
	gasCallCodeEIP2929     = makeCallVariantGasCallEIP2929(gasCallCode)
)

func gasSelfdestruct(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var (
		g       = evm.gas
		gas     uint64
		address = common.Address(stack.peek().Bytes20())
	)
	if evm.rules.IsBerlin() && evm.journal.WarmAccount(address) {
		gas = g.ColdAccountAccess
	}
	if evm.rules.IsEIP150() {
		if evm.rules.IsEIP158() {
			if evm.host.Empty(address) && evm.host.GetBalance(f.address).Sign() != 0 {
				gas += g.CreateBySelfdestruct
			}
		} else if !evm.host.Exist(address) {
			gas += g.CreateBySelfdestruct
		}
	}
	if g.SelfdestructRefund != 0 && !evm.sub.HasSelfDestructed(f.address) {
		f.Gas.Refund(g.SelfdestructRefund)
	}
	return gas, nil
}
