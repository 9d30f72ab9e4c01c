package vm

import (
	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/vm/program"
	"github.com/holiman/uint256"
)

// returnStackLimit bounds CALLF nesting within one frame.
const returnStackLimit = 1024

type returnFrame struct {
	section int
	pc      uint64
	height  int // stack height at the call, below the callee's inputs
}

// Frame is one execution context: a single call or create. Frames own their
// stack and memory and hold a reference to the shared Program.
type Frame struct {
	kind        CallKind
	caller      common.Address
	address     common.Address // storage and balance context
	codeAddress common.Address
	value       *uint256.Int
	input       []byte
	prog        *program.Program
	static      bool
	depth       int

	pc      uint64
	code    []byte // current code section, all of the code for legacy programs
	section int
	rstack  []returnFrame
	table   *JumpTable

	stack      *Stack
	memory     *Memory
	Gas        GasMeter
	returnData []byte

	state  Status
	output []byte
	err    error

	checkpoint int
	pending    *callRequest // set when the frame suspends on a child
	request    *callRequest // what created this frame
	event      *FrameEvent
}

func (f *Frame) Kind() CallKind              { return f.kind }
func (f *Frame) Depth() int                  { return f.depth }
func (f *Frame) CodeAddress() common.Address { return f.codeAddress }
func (f *Frame) Program() *program.Program   { return f.prog }
func (f *Frame) IsStatic() bool              { return f.static }
func (f *Frame) PC() uint64                  { return f.pc }
func (f *Frame) Section() int                { return f.section }
func (f *Frame) Stack() *Stack               { return f.stack }
func (f *Frame) Memory() *Memory             { return f.memory }
func (f *Frame) State() Status               { return f.state }
func (f *Frame) ReturnData() []byte          { return f.returnData }

// OpContext methods, so tracing hooks can read the frame directly.

func (f *Frame) MemoryData() []byte       { return f.memory.Data() }
func (f *Frame) StackData() []uint256.Int { return f.stack.Data() }
func (f *Frame) Caller() common.Address   { return f.caller }
func (f *Frame) Address() common.Address  { return f.address }
func (f *Frame) CallValue() *uint256.Int  { return f.value }
func (f *Frame) CallInput() []byte        { return f.input }
func (f *Frame) ContractCode() []byte     { return f.prog.Code }

func (f *Frame) enterSection(section int) {
	f.section = section
	f.code = f.prog.Container.CodeSections[section]
}

func (f *Frame) release() {
	if f.stack != nil {
		returnStack(f.stack)
		f.stack = nil
	}
}

// callRequest is what a suspended frame asks of the orchestrator, and carries
// what the frame needs to absorb the child's result.
type callRequest struct {
	kind        CallKind
	caller      common.Address
	address     common.Address
	codeAddress common.Address
	value       *uint256.Int
	transfer    bool // value moves from caller to address
	input       []byte
	gas         uint64
	static      bool

	retOffset, retSize uint64

	// creates
	initcode  []byte
	salt      *uint256.Int
	container *program.Container
	created   common.Address

	// root frame override
	prog *program.Program
}

// callResult is the finished child as the parent sees it.
type callResult struct {
	status  Status
	output  []byte
	gasLeft uint64
	refund  int64
	err     error
	address common.Address
	// light marks an EXT* call rejected before a frame was entered.
	light bool
}
