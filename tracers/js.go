package tracers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/log"
	"github.com/colorfulnotion/evm/vm"
	"github.com/dop251/goja"
	"github.com/ethereum/go-ethereum/core/types"
)

// JSInspector runs a JavaScript object literal against the engine
// callbacks. The object must define result(); step, fault, enter, exit and
// log are optional:
//
//	{
//	  n: 0,
//	  step: function(s) { this.n++; if (s.op == "SSTORE") return "stop"; },
//	  result: function() { return this.n; }
//	}
//
// step may return "stop" or "abort" to end the current frame.
type JSInspector struct {
	rt     *goja.Runtime
	obj    *goja.Object
	step   goja.Callable
	fault  goja.Callable
	enter  goja.Callable
	exit   goja.Callable
	onLog  goja.Callable
	result goja.Callable
	err    error
}

func NewJSInspector(code string) (*JSInspector, error) {
	rt := goja.New()
	rt.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	val, err := rt.RunString("(" + code + ")")
	if err != nil {
		return nil, fmt.Errorf("compile inspector script: %w", err)
	}
	obj := val.ToObject(rt)
	j := &JSInspector{rt: rt, obj: obj}
	fn := func(name string) goja.Callable {
		f, _ := goja.AssertFunction(obj.Get(name))
		return f
	}
	j.step, j.fault, j.enter, j.exit, j.onLog = fn("step"), fn("fault"), fn("enter"), fn("exit"), fn("log")
	if j.result = fn("result"); j.result == nil {
		return nil, errors.New("inspector script has no result function")
	}
	return j, nil
}

// Err is the first script error. Execution is aborted when one occurs.
func (j *JSInspector) Err() error { return j.err }

func (j *JSInspector) call(f goja.Callable, args ...any) goja.Value {
	if f == nil || j.err != nil {
		return nil
	}
	vals := make([]goja.Value, len(args))
	for i, a := range args {
		vals[i] = j.rt.ToValue(a)
	}
	v, err := f(j.obj, vals...)
	if err != nil {
		j.err = err
		log.Warn(log.Interp, "inspector script failed", "err", err)
	}
	return v
}

// stepObject exposes a step to the script. Stack and memory are read lazily.
func (j *JSInspector) stepObject(s *vm.StepContext) *goja.Object {
	o := j.rt.NewObject()
	o.Set("pc", s.PC)
	o.Set("op", s.Op.String())
	o.Set("gas", s.Gas)
	o.Set("cost", s.Cost)
	o.Set("depth", s.Depth)
	o.Set("section", s.Section)
	f := s.Frame
	o.Set("address", f.Address().Hex())
	o.Set("stackLength", func() int { return len(f.StackData()) })
	// peek(0) is the top of the stack
	o.Set("peek", func(i int) string {
		data := f.StackData()
		if i < 0 || i >= len(data) {
			return ""
		}
		return data[len(data)-1-i].Hex()
	})
	o.Set("memory", func(offset, size int) string {
		mem := f.MemoryData()
		if offset < 0 || size < 0 || offset+size > len(mem) {
			return ""
		}
		return common.Bytes2Hex(mem[offset:offset+size])
	})
	return o
}

func (j *JSInspector) OnStep(s *vm.StepContext) vm.StepAction {
	if j.err != nil {
		return vm.Abort
	}
	v := j.call(j.step, j.stepObject(s))
	if j.err != nil {
		return vm.Abort
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return vm.Continue
	}
	switch v.String() {
	case "stop":
		return vm.Stop
	case "abort":
		return vm.Abort
	}
	return vm.Continue
}

func (j *JSInspector) OnStepEnd(s *vm.StepContext, err error) {
	if err != nil && j.fault != nil {
		j.call(j.fault, j.stepObject(s), err.Error())
	}
}

type jsFrame struct {
	Kind  string `json:"type"`
	Depth int    `json:"depth"`
	From  string `json:"from"`
	To    string `json:"to"`
	Input string `json:"input"`
	Gas   uint64 `json:"gas"`
	Value string `json:"value"`
}

func (j *JSInspector) OnFrameEnter(e *vm.FrameEvent) {
	if j.enter == nil {
		return
	}
	fr := jsFrame{Kind: e.Kind.String(), Depth: e.Depth, From: e.From.Hex(), To: e.To.Hex(), Input: common.Bytes2Hex(e.Input), Gas: e.Gas, Value: "0x0"}
	if e.Value != nil {
		fr.Value = e.Value.Hex()
	}
	j.call(j.enter, fr)
}

type jsResult struct {
	Status  string `json:"status"`
	Output  string `json:"output"`
	GasUsed uint64 `json:"gasUsed"`
	Error   string `json:"error,omitempty"`
}

func (j *JSInspector) OnFrameExit(e *vm.FrameEvent, r *vm.FrameResult) {
	if j.exit == nil {
		return
	}
	res := jsResult{Status: r.Status.String(), Output: common.Bytes2Hex(r.Output), GasUsed: r.GasUsed}
	if r.Err != nil {
		res.Error = r.Err.Error()
	}
	j.call(j.exit, res)
}

func (j *JSInspector) OnLog(l *types.Log) {
	if j.onLog == nil {
		return
	}
	topics := make([]string, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = t.Hex()
	}
	j.call(j.onLog, map[string]any{"address": l.Address.Hex(), "topics": topics, "data": common.Bytes2Hex(l.Data)})
}

// Result calls the script's result() and returns its value as JSON.
func (j *JSInspector) Result() (json.RawMessage, error) {
	if j.err != nil {
		return nil, j.err
	}
	v := j.call(j.result)
	if j.err != nil {
		return nil, j.err
	}
	return json.Marshal(v.Export())
}
