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
	"math"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/vm/program"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	// legacy introspection of a container account sees only the magic
	eofMagicCode = []byte{0xef, 0x00}
	eofMagicHash = crypto.Keccak256Hash(eofMagicCode)
)

func opAdd(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	y.SMod(&x, y)
	return nil, nil
}

func opExp(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	base, exponent := f.stack.pop(), f.stack.peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	back, num := f.stack.pop(), f.stack.peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

func opNot(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x := f.stack.peek()
	x.Not(x)
	return nil, nil
}

func opLt(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x := f.stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y := f.stack.pop(), f.stack.peek()
	y.Xor(&x, y)
	return nil, nil
}

func opByte(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	th, val := f.stack.pop(), f.stack.peek()
	val.Byte(&th)
	return nil, nil
}

func opAddmod(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y, z := f.stack.pop(), f.stack.pop(), f.stack.peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x, y, z := f.stack.pop(), f.stack.pop(), f.stack.peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

// opSHL implements Shift Left
// The SHL instruction (shift left) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the left by arg1 number of bits.
func opSHL(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	// Note, second operand is left in the stack; accumulate result into it, and no need to push it afterwards
	shift, value := f.stack.pop(), f.stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSHR implements Logical Shift Right
func opSHR(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	shift, value := f.stack.pop(), f.stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSAR implements Arithmetic Shift Right
func opSAR(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	shift, value := f.stack.pop(), f.stack.peek()
	if shift.GtUint64(255) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			// Max negative shift: all bits set
			value.SetAllOne()
		}
		return nil, nil
	}
	n := uint(shift.Uint64())
	value.SRsh(value, n)
	return nil, nil
}

func opKeccak256(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	offset, size := f.stack.pop(), f.stack.peek()
	data := f.memory.GetPtr(offset.Uint64(), size.Uint64())

	evm.hasher.Reset()
	evm.hasher.Write(data)
	evm.hasher.Read(evm.hasherBuf[:])
	size.SetBytes(evm.hasherBuf[:])
	return nil, nil
}

func opAddress(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetBytes(f.address.Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	slot := f.stack.peek()
	address := common.Address(slot.Bytes20())
	slot.Set(evm.host.GetBalance(address))
	return nil, nil
}

func opOrigin(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetBytes(evm.Tx.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetBytes(f.caller.Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(f.value)
	return nil, nil
}

func opCallDataLoad(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x := f.stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getData(f.input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetUint64(uint64(len(f.input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	var (
		memOffset  = f.stack.pop()
		dataOffset = f.stack.pop()
		length     = f.stack.pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = math.MaxUint64
	}
	// These values are checked for validity during charging
	memOffset64 := memOffset.Uint64()
	length64 := length.Uint64()
	f.memory.Set(memOffset64, length64, getData(f.input, dataOffset64, length64))
	return nil, nil
}

func opReturnDataSize(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetUint64(uint64(len(f.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	var (
		memOffset  = f.stack.pop()
		dataOffset = f.stack.pop()
		length     = f.stack.pop()
	)
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, vmerrors.ErrJReturnDataOOB
	}
	// we can reuse dataOffset now (aliasing it for clarity)
	var end = dataOffset
	end.Add(&dataOffset, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(f.returnData)) < end64 {
		return nil, vmerrors.ErrJReturnDataOOB
	}
	f.memory.Set(memOffset.Uint64(), length.Uint64(), f.returnData[offset64:end64])
	return nil, nil
}

// externalCode is the code of addr as legacy instructions see it.
func (evm *EVM) externalCode(addr common.Address) []byte {
	code := evm.host.GetCode(addr)
	if evm.rules.IsEOF() && program.HasEOFPrefix(code) {
		return eofMagicCode
	}
	return code
}

func opExtCodeSize(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	slot := f.stack.peek()
	slot.SetUint64(uint64(len(evm.externalCode(slot.Bytes20()))))
	return nil, nil
}

func opCodeSize(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetUint64(uint64(len(f.prog.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	var (
		memOffset  = f.stack.pop()
		codeOffset = f.stack.pop()
		length     = f.stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = math.MaxUint64
	}
	codeCopy := getData(f.prog.Code, uint64CodeOffset, length.Uint64())
	f.memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil, nil
}

func opExtCodeCopy(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	var (
		a          = f.stack.pop()
		memOffset  = f.stack.pop()
		codeOffset = f.stack.pop()
		length     = f.stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = math.MaxUint64
	}
	codeCopy := getData(evm.externalCode(a.Bytes20()), uint64CodeOffset, length.Uint64())
	f.memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil, nil
}

// opExtCodeHash returns the code hash of a specified account.
// There are several cases when the function is called, while we can relay everything
// to `state.GetCodeHash` function to ensure the correctness.
//
//  1. Caller tries to get the code hash of a normal contract account, state
//     should return the relative code hash and set it as the result.
//
//  2. Caller tries to get the code hash of a non-existent account, state should
//     return common.Hash{} and zero will be set as the result.
//
//  3. Caller tries to get the code hash for an account without contract code, state
//     should return emptyCodeHash(0xc5d246...) as the result.
//
//  4. Caller tries to get the code hash of a precompiled account, the result should be
//     zero or emptyCodeHash.
//
//  5. Caller tries to get the code hash of a container account, the result is
//     the hash of the two magic bytes.
func opExtCodeHash(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	slot := f.stack.peek()
	address := common.Address(slot.Bytes20())
	if evm.host.Empty(address) {
		slot.Clear()
		return nil, nil
	}
	if evm.rules.IsEOF() && program.HasEOFPrefix(evm.host.GetCode(address)) {
		slot.SetBytes(eofMagicHash.Bytes())
		return nil, nil
	}
	slot.SetBytes(evm.host.GetCodeHash(address).Bytes())
	return nil, nil
}

func opGasprice(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(bigToWord(evm.Tx.GasPrice))
	return nil, nil
}

func opBlockhash(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	num := f.stack.peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow {
		num.Clear()
		return nil, nil
	}
	var upper, lower uint64
	upper = evm.blockNumber()
	if upper < 257 {
		lower = 0
	} else {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper {
		num.SetBytes(evm.host.GetBlockHash(num64).Bytes())
	} else {
		num.Clear()
	}
	return nil, nil
}

func opCoinbase(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetBytes(evm.Block.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetUint64(evm.Block.Time))
	return nil, nil
}

func opNumber(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetUint64(evm.blockNumber()))
	return nil, nil
}

func opDifficulty(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(bigToWord(evm.Block.Difficulty))
	return nil, nil
}

func opRandom(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	if evm.Block.Random == nil {
		return opDifficulty(pc, evm, f)
	}
	f.stack.push(new(uint256.Int).SetBytes(evm.Block.Random.Bytes()))
	return nil, nil
}

func opGasLimit(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetUint64(evm.Block.GasLimit))
	return nil, nil
}

func opChainID(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(bigToWord(evm.Block.ChainID))
	return nil, nil
}

func opSelfBalance(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).Set(evm.host.GetBalance(f.address)))
	return nil, nil
}

func opBaseFee(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(bigToWord(evm.Block.BaseFee))
	return nil, nil
}

// opBlobHash implements the BLOBHASH opcode
func opBlobHash(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	index := f.stack.peek()
	if index.LtUint64(uint64(len(evm.Tx.BlobHashes))) {
		blobHash := evm.Tx.BlobHashes[index.Uint64()]
		index.SetBytes32(blobHash[:])
	} else {
		index.Clear()
	}
	return nil, nil
}

// opBlobBaseFee implements BLOBBASEFEE opcode
func opBlobBaseFee(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(bigToWord(evm.Block.BlobBaseFee))
	return nil, nil
}

func opPop(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.pop()
	return nil, nil
}

func opMload(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	v := f.stack.peek()
	offset := v.Uint64()
	v.SetBytes(f.memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	mStart, val := f.stack.pop(), f.stack.pop()
	f.memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	off, val := f.stack.pop(), f.stack.pop()
	f.memory.store[off.Uint64()] = byte(val.Uint64())
	return nil, nil
}

func opSload(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	loc := f.stack.peek()
	val := evm.host.GetState(f.address, loc.Bytes32())
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	if f.static {
		return nil, vmerrors.ErrCWriteProtection
	}
	loc, val := f.stack.pop(), f.stack.pop()
	evm.journal.SetState(f.address, loc.Bytes32(), val.Bytes32())
	return nil, nil
}

func opJump(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	pos := f.stack.pop()
	if !pos.IsUint64() || !f.prog.ValidJumpdest(pos.Uint64()) {
		return nil, vmerrors.ErrJInvalidJump
	}
	*pc = pos.Uint64() - 1 // pc will be increased by the interpreter loop
	return nil, nil
}

func opJumpi(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	pos, cond := f.stack.pop(), f.stack.pop()
	if !cond.IsZero() {
		if !pos.IsUint64() || !f.prog.ValidJumpdest(pos.Uint64()) {
			return nil, vmerrors.ErrJInvalidJump
		}
		*pc = pos.Uint64() - 1 // pc will be increased by the interpreter loop
	}
	return nil, nil
}

func opJumpdest(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetUint64(uint64(f.memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetUint64(f.Gas.Remaining()))
	return nil, nil
}

// opTload implements TLOAD opcode
func opTload(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	loc := f.stack.peek()
	val := evm.sub.GetTransient(f.address, loc.Bytes32())
	loc.SetBytes(val.Bytes())
	return nil, nil
}

// opTstore implements TSTORE opcode
func opTstore(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	if f.static {
		return nil, vmerrors.ErrCWriteProtection
	}
	loc, val := f.stack.pop(), f.stack.pop()
	evm.journal.SetTransient(f.address, loc.Bytes32(), val.Bytes32())
	return nil, nil
}

func opMcopy(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	var (
		dst    = f.stack.pop()
		src    = f.stack.pop()
		length = f.stack.pop()
	)
	// These values are checked for validity during charging
	f.memory.Copy(dst.Uint64(), src.Uint64(), length.Uint64())
	return nil, nil
}

func opReturn(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	offset, size := f.stack.pop(), f.stack.pop()
	ret := f.memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, errStopToken
}

func opRevert(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	offset, size := f.stack.pop(), f.stack.pop()
	ret := f.memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, vmerrors.ErrCRevert
}

func opUndefined(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	return nil, vmerrors.ErrJInvalidOpcode
}

func opStop(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	return nil, errStopToken
}

func opSelfdestruct(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	return selfdestruct(evm, f, false)
}

// opSelfdestruct6780 only removes an account created in the same
// transaction; otherwise it just moves the balance.
func opSelfdestruct6780(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	return selfdestruct(evm, f, true)
}

func selfdestruct(evm *EVM, f *Frame, eip6780 bool) ([]byte, error) {
	if f.static {
		return nil, vmerrors.ErrCWriteProtection
	}
	top := f.stack.pop()
	beneficiary := common.Address(top.Bytes20())
	balance := new(uint256.Int).Set(evm.host.GetBalance(f.address))
	if eip6780 && !evm.sub.WasCreated(f.address) {
		evm.journal.SetBalance(f.address, new(uint256.Int))
		evm.journal.SetBalance(beneficiary, new(uint256.Int).Add(evm.host.GetBalance(beneficiary), balance))
		return nil, errStopToken
	}
	// a beneficiary equal to the account loses the balance
	evm.journal.SetBalance(beneficiary, new(uint256.Int).Add(evm.host.GetBalance(beneficiary), balance))
	evm.journal.SetBalance(f.address, new(uint256.Int))
	evm.journal.SelfDestruct(f.address)
	return nil, errStopToken
}

// following functions are used by the instruction jump table

// make log instruction function
func makeLog(size int) executionFunc {
	return func(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
		if f.static {
			return nil, vmerrors.ErrCWriteProtection
		}
		topics := make([]common.Hash, size)
		stack := f.stack
		mStart, mSize := stack.pop(), stack.pop()
		for i := 0; i < size; i++ {
			addr := stack.pop()
			topics[i] = addr.Bytes32()
		}

		d := f.memory.GetCopy(mStart.Uint64(), mSize.Uint64())
		l := &types.Log{
			Address:     f.address,
			Topics:      topics,
			Data:        d,
			BlockNumber: evm.blockNumber(),
		}
		evm.journal.AddLog(l)
		if evm.inspector != nil {
			evm.inspector.OnLog(l)
		}
		return nil, nil
	}
}

// opPush1 is a specialized version of pushN
func opPush1(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	var (
		codeLen = uint64(len(f.code))
		integer = new(uint256.Int)
	)
	*pc += 1
	if *pc < codeLen {
		f.stack.push(integer.SetUint64(uint64(f.code[*pc])))
	} else {
		f.stack.push(integer.Clear())
	}
	return nil, nil
}

func opPush0(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int))
	return nil, nil
}

// make push instruction function
func makePush(size uint64, pushByteSize int) executionFunc {
	return func(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
		var (
			codeLen = len(f.code)
			start   = min(codeLen, int(*pc+1))
			end     = min(codeLen, start+pushByteSize)
		)
		a := new(uint256.Int).SetBytes(f.code[start:end])

		// Missing bytes: pushByteSize - len(pushData)
		if missing := pushByteSize - (end - start); missing > 0 {
			a.Lsh(a, uint(8*missing))
		}
		f.stack.push(a)
		*pc += size
		return nil, nil
	}
}

// make dup instruction function
func makeDup(size int64) executionFunc {
	return func(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
		f.stack.dup(int(size))
		return nil, nil
	}
}

// make swap instruction function
func makeSwap(size int64) executionFunc {
	return func(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
		f.stack.swap(int(size))
		return nil, nil
	}
}
