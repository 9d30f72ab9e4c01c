// Copyright 2019 The go-ethereum Authors
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
	"golang.org/x/exp/slices"
)

// activators lets extra EIPs be switched on by number, for rule sets that
// want a feature ahead of its fork.
var activators = map[int]func(*JumpTable){
	5656: enable5656,
	6780: enable6780,
	3855: enable3855,
	3860: enable3860,
	3198: enable3198,
	2929: enable2929,
	1884: enable1884,
	1344: enable1344,
	1153: enable1153,
	4844: enable4844,
	7516: enable7516,
}

// EnableEIP enables the given EIP on the config.
// This operation writes in-place, and callers need to ensure that the globally
// defined jump tables are not polluted.
func EnableEIP(eipNum int, jt *JumpTable) bool {
	enablerFn, ok := activators[eipNum]
	if !ok {
		return false
	}
	enablerFn(jt)
	return true
}

func ValidEip(eipNum int) bool {
	_, ok := activators[eipNum]
	return ok
}

func ActivateableEips() []int {
	var nums []int
	for k := range activators {
		nums = append(nums, k)
	}
	slices.Sort(nums)
	return nums
}

// enable1884 applies EIP-1884 to the given jump table:
// - Increase cost of BALANCE, EXTCODEHASH and SLOAD to the schedule values
// - Define SELFBALANCE, with cost GasFastStep (5)
func enable1884(jt *JumpTable) {
	jt[SELFBALANCE] = &operation{
		execute:     opSelfBalance,
		constantGas: GasFastStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
}

// enable1344 applies EIP-1344 (ChainID Opcode)
// - Adds an opcode that returns the current chain’s EIP-155 unique identifier
func enable1344(jt *JumpTable) {
	jt[CHAINID] = &operation{
		execute:     opChainID,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
}

// enable2929 enables "EIP-2929: Gas cost increases for state access opcodes"
// https://eips.ethereum.org/EIPS/eip-2929
func enable2929(jt *JumpTable) {
	jt[SLOAD].constantGas = 0
	jt[SLOAD].dynamicGas = gasSLoadEIP2929

	jt[EXTCODECOPY].dynamicGas = gasExtCodeCopyEIP2929

	jt[EXTCODESIZE].dynamicGas = gasAccountCheck
	jt[EXTCODEHASH].dynamicGas = gasAccountCheck
	jt[BALANCE].dynamicGas = gasAccountCheck

	jt[CALL].dynamicGas = gasCallEIP2929
	jt[CALLCODE].dynamicGas = gasCallCodeEIP2929
	jt[STATICCALL].dynamicGas = gasStaticCallEIP2929
	jt[DELEGATECALL].dynamicGas = gasDelegateCallEIP2929
}

// enable3198 applies EIP-3198 (BASEFEE Opcode)
// - Adds an opcode that returns the current block's base fee.
func enable3198(jt *JumpTable) {
	jt[BASEFEE] = &operation{
		execute:     opBaseFee,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
}

// enable1153 applies EIP-1153 "Transient Storage"
// - Adds TLOAD that reads from transient storage
// - Adds TSTORE that writes to transient storage
func enable1153(jt *JumpTable) {
	jt[TLOAD] = &operation{
		execute:     opTload,
		constantGas: tstoreCost,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	jt[TSTORE] = &operation{
		execute:     opTstore,
		constantGas: tstoreCost,
		minStack:    minStack(2, 0),
		maxStack:    maxStack(2, 0),
	}
}

// tstoreCost is the EIP-1153 price of both transient storage instructions.
const tstoreCost = 100

// enable3855 applies EIP-3855 (PUSH0 opcode)
func enable3855(jt *JumpTable) {
	// New opcode
	jt[PUSH0] = &operation{
		execute:     opPush0,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
}

// enable3860 enables "EIP-3860: Limit and meter initcode"
// https://eips.ethereum.org/EIPS/eip-3860
func enable3860(jt *JumpTable) {
	jt[CREATE].dynamicGas = gasCreateEIP3860
	jt[CREATE2].dynamicGas = gasCreate2EIP3860
}

// enable5656 enables EIP-5656 (MCOPY opcode)
// https://eips.ethereum.org/EIPS/eip-5656
func enable5656(jt *JumpTable) {
	jt[MCOPY] = &operation{
		execute:     opMcopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasMcopy,
		minStack:    minStack(3, 0),
		maxStack:    maxStack(3, 0),
		memorySize:  memoryMcopy,
	}
}

// enable6780 applies EIP-6780 (deactivate SELFDESTRUCT)
func enable6780(jt *JumpTable) {
	jt[SELFDESTRUCT].execute = opSelfdestruct6780
}

// enable4844 applies EIP-4844 (BLOBHASH opcode)
func enable4844(jt *JumpTable) {
	jt[BLOBHASH] = &operation{
		execute:     opBlobHash,
		constantGas: GasFastestStep,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
}

// enable7516 applies EIP-7516 (BLOBBASEFEE opcode)
func enable7516(jt *JumpTable) {
	jt[BLOBBASEFEE] = &operation{
		execute:     opBlobBaseFee,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
}

// newEOFInstructionSet is the table container code runs with: the legacy
// set of rs minus the instructions containers ban, plus the container
// instructions of EIP-4200, 4750, 6206, 663, 7480, 7069 and 7620.
func newEOFInstructionSet(rs *rules.RuleSet) *JumpTable {
	jt := copyJumpTable(newInstructionSet(rs))
	undefined := &operation{execute: opUndefined, maxStack: maxStack(0, 0), undefined: true}
	for _, op := range []OpCode{
		CALL, CALLCODE, DELEGATECALL, STATICCALL, SELFDESTRUCT,
		JUMP, JUMPI, PC, CREATE, CREATE2,
		CODESIZE, CODECOPY, EXTCODESIZE, EXTCODECOPY, EXTCODEHASH, GAS,
	} {
		jt[op] = undefined
	}

	jt[RJUMP] = &operation{execute: opRjump, constantGas: GasQuickStep, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}
	jt[RJUMPI] = &operation{execute: opRjumpi, constantGas: GasFastishStep, minStack: minStack(1, 0), maxStack: maxStack(1, 0)}
	jt[RJUMPV] = &operation{execute: opRjumpv, constantGas: GasFastishStep, minStack: minStack(1, 0), maxStack: maxStack(1, 0)}
	jt[CALLF] = &operation{execute: opCallf, constantGas: GasFastStep, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}
	jt[RETF] = &operation{execute: opRetf, constantGas: GasFastestStep, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}
	jt[JUMPF] = &operation{execute: opJumpf, constantGas: GasFastStep, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}

	jt[DUPN] = &operation{execute: opDupN, constantGas: GasFastestStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[SWAPN] = &operation{execute: opSwapN, constantGas: GasFastestStep, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}
	jt[EXCHANGE] = &operation{execute: opExchange, constantGas: GasFastestStep, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}

	jt[DATALOAD] = &operation{execute: opDataLoad, constantGas: GasFastishStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	jt[DATALOADN] = &operation{execute: opDataLoadN, constantGas: GasFastestStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[DATASIZE] = &operation{execute: opDataSize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	jt[DATACOPY] = &operation{
		execute:     opDataCopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasDataCopy,
		minStack:    minStack(3, 0),
		maxStack:    maxStack(3, 0),
		memorySize:  memoryDataCopy,
	}
	jt[RETURNDATALOAD] = &operation{execute: opReturnDataLoad, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}

	jt[EXTCALL] = &operation{
		execute:     opExtCall,
		constantGas: rs.Gas.WarmStorageRead,
		dynamicGas:  gasExtCall,
		minStack:    minStack(4, 1),
		maxStack:    maxStack(4, 1),
		memorySize:  memoryExtCall,
	}
	jt[EXTDELEGATECALL] = &operation{
		execute:     opExtDelegateCall,
		constantGas: rs.Gas.WarmStorageRead,
		dynamicGas:  gasExtCallNoValue,
		minStack:    minStack(3, 1),
		maxStack:    maxStack(3, 1),
		memorySize:  memoryExtCall,
	}
	jt[EXTSTATICCALL] = &operation{
		execute:     opExtStaticCall,
		constantGas: rs.Gas.WarmStorageRead,
		dynamicGas:  gasExtCallNoValue,
		minStack:    minStack(3, 1),
		maxStack:    maxStack(3, 1),
		memorySize:  memoryExtCall,
	}
	jt[EOFCREATE] = &operation{
		execute:     opEOFCreate,
		constantGas: rs.Gas.Create,
		dynamicGas:  pureMemoryGascost,
		minStack:    minStack(4, 1),
		maxStack:    maxStack(4, 1),
		memorySize:  memoryEOFCreate,
	}
	jt[RETURNCONTRACT] = &operation{
		execute:    opReturnContract,
		dynamicGas: gasReturnContract,
		minStack:   minStack(2, 0),
		maxStack:   maxStack(2, 0),
		memorySize: memoryReturnContract,
	}
	return validate(jt)
}
