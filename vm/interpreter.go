// Copyright 2014 The go-ethereum Authors
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
	"errors"
	"fmt"

	log "github.com/colorfulnotion/evm/log"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/ethereum/go-ethereum/common/math"
)

var (
	// errStopToken is an internal token indicating interpreter loop termination,
	// never returned to outside callers.
	errStopToken = errors.New("stop token")
	// errSuspend ends a step that parked a child request on the frame.
	errSuspend = errors.New("suspend")
)

// ctxCheckInterval is how many steps run between context checks.
const ctxCheckInterval = 1024

// Config are the configuration options for the engine.
type Config struct {
	Inspector Inspector
	// StepLimit ends execution with ErrXStepLimitExceeded after this many
	// instructions across all frames; 0 disables it.
	StepLimit uint64
	// MemoryLimit overrides the rule set's per-frame memory ceiling when non-zero.
	MemoryLimit uint64
	// ExtraEips are opcode EIPs enabled on top of the rule set.
	ExtraEips []int
}

// run executes f until it ends or parks a child request. It returns
// errSuspend in the latter case; otherwise f's state is terminal.
//
// It's important to note that any errors returned by a step are treated as
// the frame's error. A frame never faults past this function.
func (evm *EVM) run(f *Frame) error {
	var (
		op       OpCode // current opcode
		cost     uint64 // instruction cost
		gasCopy  uint64 // gas before the instruction, for tracing
		res      []byte // result of the opcode execution function
		err      error
		reported bool // OnStepEnd delivered for the current step
	)
	var (
		mem    = f.memory // bound memory
		stack  = f.stack  // local stack
		pc     = f.pc     // program counter
		insp   = evm.inspector
		traced = insp != nil
		logged = evm.logging
		step   = &evm.step
	)
	if logged {
		log.Trace(log.Interp, evm.str("run"), "depth", f.depth, "addr", f.address, "pc", pc, "gas", f.Gas.Remaining(), "eof", f.prog.IsEOF())
	}
	for {
		reported = false
		evm.steps++
		if limit := evm.cfg.StepLimit; limit != 0 && evm.steps > limit {
			err = vmerrors.ErrXStepLimitExceeded
			break
		}
		if evm.steps%ctxCheckInterval == 0 {
			if cerr := evm.ctx.Err(); cerr != nil {
				err = fmt.Errorf("%w: %v", vmerrors.ErrXExecutionAborted, cerr)
				break
			}
		}
		// Get the operation from the jump table and validate the stack to ensure there are
		// enough stack items available to perform the operation.
		if pc < uint64(len(f.code)) {
			op = OpCode(f.code[pc])
		} else {
			op = STOP
		}
		operation := f.table[op]
		gasCopy = f.Gas.Remaining()
		cost = operation.constantGas // For tracing
		// Validate stack
		if sLen := stack.Len(); sLen < operation.minStack {
			err = fmt.Errorf("%w: %s needs %d, have %d", vmerrors.ErrSStackUnderflow, op, operation.minStack, sLen)
			break
		} else if sLen > operation.maxStack {
			err = fmt.Errorf("%w: %s at height %d", vmerrors.ErrSStackOverflow, op, sLen)
			break
		}
		// for tracing: this gas consumption event is emitted below in the debug section.
		if err = f.Gas.Charge(cost); err != nil {
			break
		}

		// All ops with a dynamic memory usage also has a dynamic gas cost.
		var memorySize uint64
		if operation.dynamicGas != nil {
			// calculate the new memory size and expand the memory to fit
			// the operation
			// Memory check needs to be done prior to evaluating the dynamic gas portion,
			// to detect calculation overflows
			if operation.memorySize != nil {
				memSize, overflow := operation.memorySize(stack)
				if overflow {
					err = vmerrors.ErrGGasUintOverflow
					break
				}
				// memory is expanded in words of 32 bytes. Gas
				// is also calculated in words.
				if memorySize, overflow = math.SafeMul(toWordSize(memSize), 32); overflow {
					err = vmerrors.ErrGGasUintOverflow
					break
				}
			}
			// Consume the gas and return an error if not enough gas is available.
			// cost is explicitly set so that the capture state defer method can get the proper cost
			var dynamicCost uint64
			dynamicCost, err = operation.dynamicGas(evm, f, stack, mem, memorySize)
			cost += dynamicCost // for tracing
			if err != nil {
				break
			}
			if err = f.Gas.Charge(dynamicCost); err != nil {
				break
			}
		}
		if memorySize > 0 {
			mem.Resize(memorySize)
		}

		if traced {
			*step = StepContext{PC: pc, Op: op, Gas: gasCopy, Cost: cost, Depth: f.depth, Section: f.section, Frame: f}
			switch insp.OnStep(step) {
			case Stop:
				res, err = nil, errStopToken
			case Abort:
				err = vmerrors.ErrXExecutionAborted
			}
			if err != nil {
				insp.OnStepEnd(step, nil)
				reported = true
				break
			}
		}
		if logged {
			log.Trace(log.Interp, evm.str(op.String()), "pc", pc, "gas", gasCopy, "cost", cost, "stack", stack.Len())
		}

		// execute the operation
		res, err = operation.execute(&pc, evm, f)
		if traced {
			insp.OnStepEnd(step, stepError(err))
			reported = true
		}
		if err != nil {
			break
		}
		pc++
	}

	if traced && !reported {
		*step = StepContext{PC: pc, Op: op, Gas: gasCopy, Cost: cost, Depth: f.depth, Section: f.section, Frame: f}
		insp.OnStepEnd(step, err)
	}
	if err == errSuspend {
		f.pc = pc + 1
		return errSuspend
	}
	f.pc = pc
	switch {
	case err == errStopToken:
		f.state, f.output = Halted, res
	case errors.Is(err, vmerrors.ErrCRevert):
		f.state, f.output = Reverted, res
	default:
		f.state, f.output, f.err = Errored, nil, err
	}
	if logged {
		log.Trace(log.Interp, evm.str("exit"), "depth", f.depth, "state", f.state, "pc", f.pc, "gasLeft", f.Gas.Remaining(), "err", f.err)
	}
	return nil
}

// stepError is the error an inspector sees for a step that executed:
// internal control tokens read as success.
func stepError(err error) error {
	if err == errStopToken || err == errSuspend {
		return nil
	}
	return err
}
