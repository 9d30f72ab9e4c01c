package vm

import (
	"github.com/colorfulnotion/evm/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// StepAction is an inspector's verdict on the instruction about to run.
type StepAction uint8

const (
	Continue StepAction = iota
	// Stop halts the frame normally before the instruction executes.
	Stop
	// Abort ends the frame with ErrXExecutionAborted.
	Abort
)

// StepContext describes the instruction about to execute. It is reused
// between steps; copy anything that must outlive the callback.
type StepContext struct {
	PC      uint64
	Op      OpCode
	Gas     uint64 // before the instruction
	Cost    uint64 // static plus dynamic cost, already charged
	Depth   int
	Section int
	Frame   *Frame
}

// FrameEvent describes a frame being entered.
type FrameEvent struct {
	Kind  CallKind
	Depth int
	From  common.Address
	To    common.Address
	Input []byte
	Gas   uint64
	Value *uint256.Int
}

// FrameResult describes a frame that finished.
type FrameResult struct {
	Status  Status
	Output  []byte
	GasUsed uint64
	Err     error
}

// Inspector observes execution. Callbacks run synchronously on the
// executing goroutine.
type Inspector interface {
	OnStep(s *StepContext) StepAction
	// OnStepEnd follows every step that got past OnStep, and every step that
	// failed before it; err is nil on success.
	OnStepEnd(s *StepContext, err error)
	OnFrameEnter(e *FrameEvent)
	OnFrameExit(e *FrameEvent, r *FrameResult)
	OnLog(l *types.Log)
}

// NoopInspector implements Inspector with empty callbacks, for embedding.
type NoopInspector struct{}

func (NoopInspector) OnStep(*StepContext) StepAction        { return Continue }
func (NoopInspector) OnStepEnd(*StepContext, error)         {}
func (NoopInspector) OnFrameEnter(*FrameEvent)              {}
func (NoopInspector) OnFrameExit(*FrameEvent, *FrameResult) {}
func (NoopInspector) OnLog(*types.Log)                      {}
