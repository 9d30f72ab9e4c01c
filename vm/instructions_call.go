// Copyright 2015 The go-ethereum Authors
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
	"github.com/holiman/uint256"
)

// The call and create instructions do not run the child themselves: they
// park a request on the frame and suspend. The orchestrator runs the child
// and calls absorb with its result once it ends.

func opCreate(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	if f.static {
		return nil, vmerrors.ErrCWriteProtection
	}
	var (
		value        = f.stack.pop()
		offset, size = f.stack.pop(), f.stack.pop()
		input        = f.memory.GetCopy(offset.Uint64(), size.Uint64())
	)
	f.pending = &callRequest{
		kind:     KindCreate,
		caller:   f.address,
		value:    &value,
		transfer: true,
		initcode: input,
		gas:      forwardAll(evm, f),
	}
	return nil, errSuspend
}

func opCreate2(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	if f.static {
		return nil, vmerrors.ErrCWriteProtection
	}
	var (
		endowment    = f.stack.pop()
		offset, size = f.stack.pop(), f.stack.pop()
		salt         = f.stack.pop()
		input        = f.memory.GetCopy(offset.Uint64(), size.Uint64())
	)
	f.pending = &callRequest{
		kind:     KindCreate2,
		caller:   f.address,
		value:    &endowment,
		transfer: true,
		initcode: input,
		salt:     &salt,
		gas:      forwardAll(evm, f),
	}
	return nil, errSuspend
}

// forwardAll takes everything the retention rule lets a create pass on.
func forwardAll(evm *EVM, f *Frame) uint64 {
	gas := evm.rules.Forwardable(f.Gas.Remaining())
	f.Gas.Charge(gas)
	return gas
}

func opCall(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	stack := f.stack
	// Pop gas. The actual gas in evm.callGasTemp.
	stack.pop()
	gas := evm.callGasTemp
	// Pop other call parameters.
	addr, value, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	// Get the arguments from the memory.
	args := f.memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	if f.static && !value.IsZero() {
		return nil, vmerrors.ErrCWriteProtection
	}
	if !value.IsZero() {
		gas += evm.gas.CallStipend
	}
	f.pending = &callRequest{
		kind:        KindCall,
		caller:      f.address,
		address:     toAddr,
		codeAddress: toAddr,
		value:       &value,
		transfer:    true,
		input:       args,
		gas:         gas,
		static:      f.static,
		retOffset:   retOffset.Uint64(),
		retSize:     retSize.Uint64(),
	}
	return nil, errSuspend
}

func opCallCode(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	stack := f.stack
	stack.pop()
	gas := evm.callGasTemp
	addr, value, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := f.memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	if !value.IsZero() {
		gas += evm.gas.CallStipend
	}
	f.pending = &callRequest{
		kind:        KindCallCode,
		caller:      f.address,
		address:     f.address,
		codeAddress: toAddr,
		value:       &value,
		transfer:    true,
		input:       args,
		gas:         gas,
		static:      f.static,
		retOffset:   retOffset.Uint64(),
		retSize:     retSize.Uint64(),
	}
	return nil, errSuspend
}

func opDelegateCall(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	stack := f.stack
	stack.pop()
	gas := evm.callGasTemp
	addr, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := f.memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	f.pending = &callRequest{
		kind:        KindDelegateCall,
		caller:      f.caller,
		address:     f.address,
		codeAddress: toAddr,
		value:       f.value,
		input:       args,
		gas:         gas,
		static:      f.static,
		retOffset:   retOffset.Uint64(),
		retSize:     retSize.Uint64(),
	}
	return nil, errSuspend
}

func opStaticCall(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	stack := f.stack
	stack.pop()
	gas := evm.callGasTemp
	addr, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := f.memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	f.pending = &callRequest{
		kind:        KindStaticCall,
		caller:      f.address,
		address:     toAddr,
		codeAddress: toAddr,
		value:       new(uint256.Int),
		input:       args,
		gas:         gas,
		static:      true,
		retOffset:   retOffset.Uint64(),
		retSize:     retSize.Uint64(),
	}
	return nil, errSuspend
}

// absorb hands a finished child back to the frame that requested it: the
// unused gas, the return data buffer and whatever the instruction leaves on
// the stack.
func (f *Frame) absorb(req *callRequest, res *callResult) {
	f.Gas.ReturnGas(res.gasLeft)
	succeeded := res.status == Halted

	switch {
	case req.kind.IsCreate():
		word := new(uint256.Int)
		if succeeded {
			word.SetBytes(res.address.Bytes())
		}
		f.stack.push(word)
		if res.status == Reverted {
			f.returnData = res.output
		} else {
			f.returnData = nil
		}

	case req.kind.IsExt():
		var code uint64
		switch {
		case succeeded:
			code = 0
		case res.status == Reverted || res.light:
			code = 1
		default:
			code = 2
		}
		f.stack.push(new(uint256.Int).SetUint64(code))
		if succeeded || res.status == Reverted {
			f.returnData = res.output
		} else {
			f.returnData = nil
		}

	default:
		word := new(uint256.Int)
		if succeeded {
			word.SetOne()
		}
		f.stack.push(word)
		if succeeded || res.status == Reverted {
			f.memory.Set(req.retOffset, req.retSize, res.output)
			f.returnData = res.output
		} else {
			f.returnData = nil
		}
	}
}
