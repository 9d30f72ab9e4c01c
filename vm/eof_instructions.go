package vm

import (
	"encoding/binary"
	"math"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/vm/program"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/holiman/uint256"
)

// Container instructions. Immediates were bounds checked by validation, so
// handlers read them without checks. Relative offsets count from the byte
// after the instruction's immediates.

const (
	extMinRetainedGas = 5000
	extMinCalleeGas   = 2300
)

func readInt16(code []byte, pos uint64) int64 {
	return int64(int16(binary.BigEndian.Uint16(code[pos:])))
}

func readUint16(code []byte, pos uint64) uint64 {
	return uint64(binary.BigEndian.Uint16(code[pos:]))
}

func opRjump(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	offset := readInt16(f.code, *pc+1)
	*pc = uint64(int64(*pc)+3+offset) - 1
	return nil, nil
}

func opRjumpi(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	cond := f.stack.pop()
	if cond.IsZero() {
		*pc += 2
		return nil, nil
	}
	return opRjump(pc, evm, f)
}

func opRjumpv(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	var (
		count = uint64(f.code[*pc+1]) + 1
		next  = *pc + 2 + 2*count
		idx   = f.stack.pop()
	)
	if !idx.LtUint64(count) {
		*pc = next - 1
		return nil, nil
	}
	offset := readInt16(f.code, *pc+2+2*idx.Uint64())
	*pc = uint64(int64(next)+offset) - 1
	return nil, nil
}

// checkSectionStack rejects entering section s when its declared peak would
// overflow the operand stack.
func checkSectionStack(f *Frame, t program.FunctionType) error {
	if f.stack.Len()+int(t.MaxStackHeight)-int(t.Inputs) > StackLimit {
		return vmerrors.ErrSStackOverflow
	}
	return nil
}

func opCallf(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	idx := int(readUint16(f.code, *pc+1))
	t := f.prog.Container.Types[idx]
	if len(f.rstack) >= returnStackLimit {
		return nil, vmerrors.ErrSReturnStack
	}
	if err := checkSectionStack(f, t); err != nil {
		return nil, err
	}
	f.rstack = append(f.rstack, returnFrame{
		section: f.section,
		pc:      *pc + 3,
		height:  f.stack.Len() - int(t.Inputs),
	})
	f.enterSection(idx)
	*pc = math.MaxUint64 // wraps to 0 when the interpreter loop advances
	return nil, nil
}

func opRetf(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	rf := f.rstack[len(f.rstack)-1]
	f.rstack = f.rstack[:len(f.rstack)-1]
	f.enterSection(rf.section)
	*pc = rf.pc - 1
	return nil, nil
}

func opJumpf(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	idx := int(readUint16(f.code, *pc+1))
	if err := checkSectionStack(f, f.prog.Container.Types[idx]); err != nil {
		return nil, err
	}
	f.enterSection(idx)
	*pc = math.MaxUint64
	return nil, nil
}

func opDupN(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	n := int(f.code[*pc+1]) + 1
	if f.stack.Len() < n {
		return nil, vmerrors.ErrSStackUnderflow
	}
	f.stack.dup(n)
	*pc += 1
	return nil, nil
}

func opSwapN(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	n := int(f.code[*pc+1]) + 1
	if f.stack.Len() <= n {
		return nil, vmerrors.ErrSStackUnderflow
	}
	f.stack.swap(n)
	*pc += 1
	return nil, nil
}

func opExchange(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	imm := f.code[*pc+1]
	n := int(imm>>4) + 1
	m := int(imm&0x0f) + 1
	if f.stack.Len() <= n+m {
		return nil, vmerrors.ErrSStackUnderflow
	}
	f.stack.exchange(n, n+m)
	*pc += 1
	return nil, nil
}

func opDataLoad(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x := f.stack.peek()
	offset, overflow := x.Uint64WithOverflow()
	if overflow {
		x.Clear()
		return nil, nil
	}
	x.SetBytes(getData(f.prog.Container.Data, offset, 32))
	return nil, nil
}

func opDataLoadN(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	offset := readUint16(f.code, *pc+1)
	f.stack.push(new(uint256.Int).SetBytes(getData(f.prog.Container.Data, offset, 32)))
	*pc += 2
	return nil, nil
}

func opDataSize(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	f.stack.push(new(uint256.Int).SetUint64(uint64(len(f.prog.Container.Data))))
	return nil, nil
}

func opDataCopy(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	var (
		memOffset = f.stack.pop()
		offset    = f.stack.pop()
		size      = f.stack.pop()
	)
	offset64, overflow := offset.Uint64WithOverflow()
	if overflow {
		offset64 = ^uint64(0)
	}
	f.memory.Set(memOffset.Uint64(), size.Uint64(), getData(f.prog.Container.Data, offset64, size.Uint64()))
	return nil, nil
}

func opReturnDataLoad(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	x := f.stack.peek()
	offset, overflow := x.Uint64WithOverflow()
	if overflow {
		x.Clear()
		return nil, nil
	}
	x.SetBytes(getData(f.returnData, offset, 32))
	return nil, nil
}

// fitsAddress reports whether w has no bits above the low 160.
func fitsAddress(w *uint256.Int) bool {
	return w[3] == 0 && w[2]>>32 == 0
}

// makeGasExtCall prices EXTCALL, EXTDELEGATECALL and EXTSTATICCALL: memory,
// the cold surcharge and, for a value transfer, the transfer and new
// account costs. The forwarded gas is settled by the instruction itself.
func makeGasExtCall(withValue bool) gasFunc {
	return func(evm *EVM, f *Frame, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		return extCallGas(evm, stack, mem, memorySize, withValue)
	}
}

var (
	gasExtCall        = makeGasExtCall(true)
	gasExtCallNoValue = makeGasExtCall(false)
)

func extCallGas(evm *EVM, stack *Stack, mem *Memory, memorySize uint64, withValue bool) (uint64, error) {
	target := stack.Back(0)
	if !fitsAddress(target) {
		return 0, vmerrors.ErrCAddressOutOfRange
	}
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	g := evm.gas
	addr := common.Address(target.Bytes20())
	if evm.journal.WarmAccount(addr) {
		gas += g.ColdAccountAccess - g.WarmStorageRead
	}
	if withValue && !stack.Back(3).IsZero() {
		gas += g.CallValueTransfer
		if evm.host.Empty(addr) {
			gas += g.CallNewAccount
		}
	}
	return gas, nil
}

func opExtCall(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	return extCall(evm, f, KindExtCall)
}

func opExtDelegateCall(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	return extCall(evm, f, KindExtDelegateCall)
}

func opExtStaticCall(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	return extCall(evm, f, KindExtStaticCall)
}

func extCall(evm *EVM, f *Frame, kind CallKind) ([]byte, error) {
	var (
		stack    = f.stack
		target   = stack.pop()
		inOffset = stack.pop()
		inSize   = stack.pop()
		value    = new(uint256.Int)
	)
	if kind == KindExtCall {
		*value = stack.pop()
		if f.static && !value.IsZero() {
			return nil, vmerrors.ErrCWriteProtection
		}
	}
	addr := common.Address(target.Bytes20())
	args := f.memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	available := f.Gas.Remaining()
	retained := max(available/64, extMinRetainedGas)
	var gas uint64
	if available > retained {
		gas = available - retained
	}
	light := gas < extMinCalleeGas ||
		f.depth >= evm.rules.MaxCallDepth ||
		(kind == KindExtCall && value.Gt(evm.host.GetBalance(f.address))) ||
		(kind == KindExtDelegateCall && !program.HasEOFPrefix(evm.host.GetCode(addr)))
	if light {
		f.returnData = nil
		stack.push(new(uint256.Int).SetOne())
		return nil, nil
	}
	f.Gas.Charge(gas)

	req := &callRequest{
		kind:        kind,
		caller:      f.address,
		address:     addr,
		codeAddress: addr,
		value:       value,
		transfer:    kind == KindExtCall,
		input:       args,
		gas:         gas,
		static:      f.static || kind == KindExtStaticCall,
	}
	if kind == KindExtDelegateCall {
		req.caller = f.caller
		req.address = f.address
		req.value = f.value
	}
	f.pending = req
	return nil, errSuspend
}

func opEOFCreate(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	if f.static {
		return nil, vmerrors.ErrCWriteProtection
	}
	var (
		idx      = f.code[*pc+1]
		value    = f.stack.pop()
		salt     = f.stack.pop()
		inOffset = f.stack.pop()
		inSize   = f.stack.pop()
		sub      = f.prog.Container.SubContainers[idx]
	)
	*pc += 1
	// hashing the init container
	words := toWordSize(uint64(len(sub.Bytes())))
	if err := f.Gas.Charge(words * evm.gas.Keccak256Word); err != nil {
		return nil, err
	}
	f.pending = &callRequest{
		kind:      KindEOFCreate,
		caller:    f.address,
		value:     &value,
		transfer:  true,
		input:     f.memory.GetCopy(inOffset.Uint64(), inSize.Uint64()),
		salt:      &salt,
		container: sub,
		gas:       forwardAll(evm, f),
	}
	return nil, errSuspend
}

func opReturnContract(pc *uint64, evm *EVM, f *Frame) ([]byte, error) {
	var (
		idx    = f.code[*pc+1]
		offset = f.stack.pop()
		size   = f.stack.pop()
	)
	aux := f.memory.GetCopy(offset.Uint64(), size.Uint64())
	deployed, err := f.prog.Container.SubContainers[idx].WithAuxData(aux)
	if err != nil {
		return nil, err
	}
	return deployed.Bytes(), errStopToken
}
