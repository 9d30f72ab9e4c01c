package tracers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vm"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var (
	caller = common.HexToAddress("0x1000")
	parent = common.HexToAddress("0x2000")
	child  = common.HexToAddress("0x3000")
)

// child: LOG0 of nothing, then return; parent: CALL child, STOP.
func testHost() *vm.MemoryHost {
	host := vm.NewMemoryHost()
	host.SetAccount(child, 0, 0, []byte{
		byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.LOG0),
		byte(vm.STOP),
	})
	code := []byte{
		byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, byte(vm.PUSH1), 0,
		byte(vm.PUSH20),
	}
	code = append(code, child.Bytes()...)
	code = append(code, byte(vm.GAS), byte(vm.CALL), byte(vm.STOP))
	host.SetAccount(parent, 0, 0, code)
	return host
}

func run(t *testing.T, in vm.Inspector) *vm.Outcome {
	t.Helper()
	block := vm.BlockContext{GasLimit: 30_000_000, BlockNumber: big.NewInt(1), Difficulty: new(big.Int), BaseFee: new(big.Int), ChainID: big.NewInt(1)}
	evm := vm.New(testHost(), rules.ForFork(rules.Cancun), vm.Config{Inspector: in}, block, vm.TxContext{Origin: caller, GasPrice: new(big.Int)})
	return evm.Execute(context.Background(), &vm.Message{Kind: vm.KindCall, Caller: caller, To: parent, Gas: 100_000})
}

func TestCallTree(t *testing.T) {
	tree := NewCallTree()
	o := run(t, tree)
	require.True(t, o.Success(), o.String())

	require.NotNil(t, tree.Root)
	assert.Equal(t, parent, tree.Root.To)
	require.Len(t, tree.Root.Children, 1)
	assert.Equal(t, child, tree.Root.Children[0].To)
	assert.Equal(t, vm.Halted, tree.Root.Children[0].Status)
	assert.Equal(t, o.GasUsed, tree.Root.GasUsed)

	out := tree.String()
	assert.Equal(t, 2, strings.Count(out, "CALL"), out)
}

func TestHooksAdapter(t *testing.T) {
	var (
		depths  []int
		exits   int
		opcodes = map[byte]int{}
		logs    int
	)
	h := &tracing.Hooks{
		OnEnter: func(depth int, typ byte, from, to common.Address, input []byte, gas uint64, value *big.Int) {
			depths = append(depths, depth)
			assert.Equal(t, byte(vm.CALL), typ)
		},
		OnExit: func(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
			exits++
			assert.False(t, reverted)
		},
		OnOpcode: func(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
			opcodes[op]++
		},
		OnLog: func(*types.Log) { logs++ },
	}
	o := run(t, NewHooks(h))
	require.True(t, o.Success(), o.String())
	assert.Equal(t, []int{0, 1}, depths)
	assert.Equal(t, 2, exits)
	assert.Equal(t, 7, opcodes[byte(vm.PUSH1)])
	assert.Equal(t, 1, opcodes[byte(vm.CALL)])
	assert.Equal(t, 1, logs)
}

func TestMultiFirstVerdictWins(t *testing.T) {
	stopper := &stopAt{op: vm.CALL}
	tree := NewCallTree()
	o := run(t, Multi{tree, stopper})
	require.True(t, o.Success(), o.String())
	assert.Empty(t, tree.Root.Children, "the frame stopped before CALL")
}

type stopAt struct {
	vm.NoopInspector
	op vm.OpCode
}

func (s *stopAt) OnStep(c *vm.StepContext) vm.StepAction {
	if c.Op == s.op {
		return vm.Stop
	}
	return vm.Continue
}

func TestJSInspector(t *testing.T) {
	js, err := NewJSInspector(`{
		steps: 0,
		frames: [],
		step: function(s) { this.steps++; },
		enter: function(f) { this.frames.push(f.type + "@" + f.depth); },
		result: function() { return {steps: this.steps, frames: this.frames}; }
	}`)
	require.NoError(t, err)
	o := run(t, js)
	require.True(t, o.Success(), o.String())

	raw, err := js.Result()
	require.NoError(t, err)
	var res struct {
		Steps  int      `json:"steps"`
		Frames []string `json:"frames"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, 13, res.Steps)
	assert.Equal(t, []string{"CALL@0", "CALL@1"}, res.Frames)
}

func TestJSInspectorControl(t *testing.T) {
	js, err := NewJSInspector(`{
		step: function(s) { if (s.op == "CALL") return "stop"; },
		result: function() { return null; }
	}`)
	require.NoError(t, err)
	tree := NewCallTree()
	o := run(t, Multi{js, tree})
	require.True(t, o.Success(), o.String())
	assert.Empty(t, tree.Root.Children)

	broken, err := NewJSInspector(`{ step: function(s) { throw new Error("no"); }, result: function() {} }`)
	require.NoError(t, err)
	o = run(t, broken)
	assert.Equal(t, vm.Errored, o.Status)
	assert.Error(t, broken.Err())
	_, err = broken.Result()
	assert.Error(t, err)

	_, err = NewJSInspector(`{ step: function() {} }`)
	assert.Error(t, err)
}

func TestOtelSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	o := run(t, NewOtelInspector(context.Background(), tp))
	require.True(t, o.Success(), o.String())

	spans := sr.Ended()
	require.Len(t, spans, 2)
	inner, outer := spans[0], spans[1]
	assert.Equal(t, "CALL", outer.Name())
	assert.Equal(t, outer.SpanContext().SpanID(), inner.Parent().SpanID())
	assert.Equal(t, outer.SpanContext().TraceID(), inner.SpanContext().TraceID())
	require.Len(t, inner.Events(), 1)
	assert.Equal(t, "log", inner.Events()[0].Name)
}

func TestGasProfile(t *testing.T) {
	p := NewGasProfile()
	o := run(t, p)
	require.True(t, o.Success(), o.String())

	var push1 OpGas
	for _, e := range p.Entries() {
		if e.Op == vm.PUSH1 {
			push1 = e
		}
	}
	assert.Equal(t, uint64(7), push1.Count)
	assert.Equal(t, uint64(21), push1.Gas)
	assert.Equal(t, vm.CALL, p.Entries()[0].Op, "the forwarded gas makes CALL the largest")

	var buf bytes.Buffer
	require.NoError(t, p.Render(&buf, "gas by opcode"))
	assert.Contains(t, buf.String(), "echarts")
	assert.Contains(t, buf.String(), "PUSH1")
}
