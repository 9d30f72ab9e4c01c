// Package tracers holds inspectors for the engine: an adapter for
// go-ethereum tracing hooks, a call tree, a scripted JavaScript inspector,
// OpenTelemetry frame spans and a gas profile.
package tracers

import (
	"math/big"

	"github.com/colorfulnotion/evm/vm"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
)

// Frame satisfies the scope the go-ethereum hooks expect.
var _ tracing.OpContext = (*vm.Frame)(nil)

// Hooks drives a go-ethereum *tracing.Hooks from engine callbacks, so tracers
// written for geth (struct loggers, call tracers) run unchanged. Only the
// execution hooks are used; state change hooks are not fired.
type Hooks struct {
	vm.NoopInspector
	h *tracing.Hooks
}

func NewHooks(h *tracing.Hooks) *Hooks {
	return &Hooks{h: h}
}

func (a *Hooks) OnStep(s *vm.StepContext) vm.StepAction {
	if a.h.OnOpcode != nil {
		a.h.OnOpcode(s.PC, byte(s.Op), s.Gas, s.Cost, s.Frame, s.Frame.ReturnData(), s.Depth, nil)
	}
	return vm.Continue
}

func (a *Hooks) OnStepEnd(s *vm.StepContext, err error) {
	if err != nil && a.h.OnFault != nil {
		a.h.OnFault(s.PC, byte(s.Op), s.Gas, s.Cost, s.Frame, s.Depth, err)
	}
}

func (a *Hooks) OnFrameEnter(e *vm.FrameEvent) {
	if a.h.OnEnter == nil {
		return
	}
	var value *big.Int
	if e.Value != nil {
		value = e.Value.ToBig()
	}
	a.h.OnEnter(e.Depth, byte(e.Kind.Opcode()), e.From, e.To, e.Input, e.Gas, value)
}

func (a *Hooks) OnFrameExit(e *vm.FrameEvent, r *vm.FrameResult) {
	if a.h.OnExit != nil {
		a.h.OnExit(e.Depth, r.Output, r.GasUsed, r.Err, r.Status == vm.Reverted)
	}
}

func (a *Hooks) OnLog(l *types.Log) {
	if a.h.OnLog != nil {
		a.h.OnLog(l)
	}
}

// Multi fans every callback out to each inspector in order. The first
// non-Continue step verdict wins.
type Multi []vm.Inspector

func (m Multi) OnStep(s *vm.StepContext) vm.StepAction {
	action := vm.Continue
	for _, in := range m {
		if a := in.OnStep(s); a != vm.Continue && action == vm.Continue {
			action = a
		}
	}
	return action
}

func (m Multi) OnStepEnd(s *vm.StepContext, err error) {
	for _, in := range m {
		in.OnStepEnd(s, err)
	}
}

func (m Multi) OnFrameEnter(e *vm.FrameEvent) {
	for _, in := range m {
		in.OnFrameEnter(e)
	}
}

func (m Multi) OnFrameExit(e *vm.FrameEvent, r *vm.FrameResult) {
	for _, in := range m {
		in.OnFrameExit(e, r)
	}
}

func (m Multi) OnLog(l *types.Log) {
	for _, in := range m {
		in.OnLog(l)
	}
}
