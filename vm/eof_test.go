package vm

import (
	"context"
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vm/program"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entry is the type of a first section: no inputs, non-returning.
func entry(maxStack uint16) program.FunctionType {
	return program.FunctionType{Inputs: 0, Outputs: 0x80, MaxStackHeight: maxStack}
}

// returnTop stores the top of the stack at memory 0 and returns that word.
var returnTop = []byte{
	byte(PUSH1), 0, byte(MSTORE),
	byte(PUSH1), 32, byte(PUSH1), 0, byte(RETURN),
}

func container(types []program.FunctionType, codes [][]byte, data []byte, subs ...*program.Container) *program.Container {
	return &program.Container{Types: types, CodeSections: codes, Data: data, SubContainers: subs}
}

func runEOF(t *testing.T, code []byte, gas uint64) *Outcome {
	t.Helper()
	host := NewMemoryHost()
	host.SetAccount(target, 0, 0, code)
	evm := newTestEVM(host, rules.Osaka, Config{})
	return evm.Execute(context.Background(), callMsg(target, gas))
}

func TestEOFReturn(t *testing.T) {
	code := append([]byte{byte(PUSH1), 0x2a}, returnTop...)
	c := container([]program.FunctionType{entry(2)}, [][]byte{code}, nil)

	o := runEOF(t, c.MarshalBinary(), 100_000)
	require.Equal(t, Halted, o.Status, o.String())
	assert.Equal(t, uint64(0x2a), word(o.Output))
}

func TestEOFCallfRetf(t *testing.T) {
	main := append([]byte{byte(CALLF), 0, 1}, returnTop...)
	sub := []byte{byte(PUSH1), 7, byte(RETF)}
	c := container(
		[]program.FunctionType{entry(2), {Inputs: 0, Outputs: 1, MaxStackHeight: 1}},
		[][]byte{main, sub}, nil)

	o := runEOF(t, c.MarshalBinary(), 100_000)
	require.Equal(t, Halted, o.Status, o.String())
	assert.Equal(t, uint64(7), word(o.Output))
}

func TestEOFReturnStackLimit(t *testing.T) {
	main := []byte{byte(CALLF), 0, 1, byte(STOP)}
	loop := []byte{byte(CALLF), 0, 1, byte(RETF)}
	c := container(
		[]program.FunctionType{entry(0), {Inputs: 0, Outputs: 0, MaxStackHeight: 0}},
		[][]byte{main, loop}, nil)

	o := runEOF(t, c.MarshalBinary(), 1_000_000)
	require.Equal(t, Errored, o.Status)
	assert.ErrorIs(t, o.Err, vmerrors.ErrSReturnStack)
	assert.Equal(t, uint64(1_000_000), o.GasUsed)
}

func TestEOFRjumpi(t *testing.T) {
	code := []byte{
		byte(PUSH1), 1,
		byte(RJUMPI), 0, 5, // to offset 10
		byte(PUSH1), 0, byte(PUSH1), 0, byte(REVERT),
		byte(PUSH1), 9,
	}
	code = append(code, returnTop...)
	c := container([]program.FunctionType{entry(2)}, [][]byte{code}, nil)

	o := runEOF(t, c.MarshalBinary(), 100_000)
	require.Equal(t, Halted, o.Status, o.String())
	assert.Equal(t, uint64(9), word(o.Output))
}

func TestEOFDataLoadN(t *testing.T) {
	data := make([]byte, 32)
	data[31] = 0x33
	code := append([]byte{byte(DATALOADN), 0, 0}, returnTop...)
	c := container([]program.FunctionType{entry(2)}, [][]byte{code}, data)

	o := runEOF(t, c.MarshalBinary(), 100_000)
	require.Equal(t, Halted, o.Status, o.String())
	assert.Equal(t, uint64(0x33), word(o.Output))
}

func TestEOFLegacyInstructionRejected(t *testing.T) {
	c := container([]program.FunctionType{entry(1)}, [][]byte{{byte(PUSH0), byte(JUMP), byte(STOP)}}, nil)
	code := c.MarshalBinary()

	o := runEOF(t, code, 50_000)
	require.Equal(t, Errored, o.Status)
	assert.True(t, vmerrors.IsValidation(o.Err), o.Err)
	assert.ErrorIs(t, o.Err, vmerrors.ErrVUndefinedInstruction)
	assert.Equal(t, uint64(50_000), o.GasUsed)

	// Before containers are enabled the same bytes are legacy code starting
	// with an invalid opcode.
	host := NewMemoryHost()
	host.SetAccount(target, 0, 0, code)
	o = newTestEVM(host, rules.Cancun, Config{}).Execute(context.Background(), callMsg(target, 50_000))
	require.Equal(t, Errored, o.Status)
	assert.ErrorIs(t, o.Err, vmerrors.ErrJInvalidOpcode)
}

func TestEOFExtCallReturnData(t *testing.T) {
	host := NewMemoryHost()
	host.SetAccount(other, 0, 0, []byte{
		byte(PUSH1), 0x55, byte(PUSH1), 0, byte(MSTORE),
		byte(PUSH1), 32, byte(PUSH1), 0, byte(RETURN),
	})
	code := []byte{
		byte(PUSH1), 0, byte(PUSH1), 0, byte(PUSH1), 0, // value, size, offset
		byte(PUSH20),
	}
	code = append(code, other.Bytes()...)
	code = append(code,
		byte(EXTCALL), byte(POP),
		byte(PUSH1), 0, byte(RETURNDATALOAD),
	)
	code = append(code, returnTop...)
	c := container([]program.FunctionType{entry(4)}, [][]byte{code}, nil)
	host.SetAccount(target, 0, 0, c.MarshalBinary())

	r := &recorder{}
	o := newTestEVM(host, rules.Osaka, Config{Inspector: r}).Execute(context.Background(), callMsg(target, 200_000))
	require.Equal(t, Halted, o.Status, o.String())
	assert.Equal(t, uint64(0x55), word(o.Output))
	require.Len(t, r.enters, 2)
	assert.Equal(t, KindExtCall, r.enters[1].Kind)
}

func TestEOFExtCallLightFailure(t *testing.T) {
	// Too little gas to pass the callee minimum: EXTCALL pushes 1 without
	// entering a frame.
	code := []byte{
		byte(PUSH1), 0, byte(PUSH1), 0, byte(PUSH1), 0,
		byte(PUSH20),
	}
	code = append(code, other.Bytes()...)
	code = append(code, byte(EXTCALL))
	code = append(code, returnTop...)
	c := container([]program.FunctionType{entry(4)}, [][]byte{code}, nil)

	host := NewMemoryHost()
	host.SetAccount(target, 0, 0, c.MarshalBinary())
	r := &recorder{}
	o := newTestEVM(host, rules.Osaka, Config{Inspector: r}).Execute(context.Background(), callMsg(target, 6_000))
	require.Equal(t, Halted, o.Status, o.String())
	assert.Equal(t, uint64(1), word(o.Output))
	assert.Len(t, r.enters, 1)
}

// deployer builds a container that EOFCREATEs an initcode container which
// in turn deploys a runtime container returning 5.
func deployer() (*program.Container, *program.Container) {
	runtime := container([]program.FunctionType{entry(2)},
		[][]byte{append([]byte{byte(PUSH1), 5}, returnTop...)}, nil)
	initcode := container([]program.FunctionType{entry(2)},
		[][]byte{{byte(PUSH1), 0, byte(PUSH1), 0, byte(RETURNCONTRACT), 0}}, nil, runtime)
	code := []byte{
		byte(PUSH1), 0, byte(PUSH1), 0, byte(PUSH1), 0, byte(PUSH1), 0, // size, offset, salt, value
		byte(EOFCREATE), 0,
	}
	code = append(code, returnTop...)
	return container([]program.FunctionType{entry(4)}, [][]byte{code}, nil, initcode), initcode
}

func TestEOFCreateAndReturnContract(t *testing.T) {
	root, initcode := deployer()
	host := NewMemoryHost()
	host.SetAccount(target, 0, 1, root.MarshalBinary())

	evm := newTestEVM(host, rules.Osaka, Config{})
	o := evm.Execute(context.Background(), callMsg(target, 1_000_000))
	require.Equal(t, Halted, o.Status, o.String())

	want := crypto.CreateAddress2(target, [32]byte{}, crypto.Keccak256(initcode.MarshalBinary()))
	created := common.BytesToAddress(o.Output)
	require.Equal(t, want, created)
	deployed := host.GetCode(created)
	require.True(t, program.HasEOFPrefix(deployed))
	assert.Equal(t, uint64(2), host.GetNonce(target))

	o = newTestEVM(host, rules.Osaka, Config{}).Execute(context.Background(), callMsg(created, 100_000))
	require.Equal(t, Halted, o.Status, o.String())
	assert.Equal(t, uint64(5), word(o.Output))
}

func TestEOFTopLevelCreate(t *testing.T) {
	_, initcode := deployer()
	host := NewMemoryHost()
	host.SetAccount(sender, 0, 0, nil)

	evm := newTestEVM(host, rules.Osaka, Config{})
	o := evm.Execute(context.Background(), &Message{Kind: KindCreate, Caller: sender, Input: initcode.MarshalBinary(), Gas: 1_000_000})
	require.Equal(t, Halted, o.Status, o.String())
	assert.Equal(t, crypto.CreateAddress(sender, 0), o.ContractAddress)
	assert.True(t, program.HasEOFPrefix(host.GetCode(o.ContractAddress)))
}

func TestEOFInitcodeValidation(t *testing.T) {
	// Initcode may not end in RETURN.
	bad := container([]program.FunctionType{entry(2)}, [][]byte{{byte(PUSH1), 0, byte(PUSH1), 0, byte(RETURN)}}, nil)
	host := NewMemoryHost()
	evm := newTestEVM(host, rules.Osaka, Config{})
	o := evm.Execute(context.Background(), &Message{Kind: KindCreate, Caller: sender, Input: bad.MarshalBinary(), Gas: 100_000})
	require.Equal(t, Errored, o.Status)
	assert.True(t, vmerrors.IsValidation(o.Err), o.Err)
	assert.Empty(t, host.GetCode(crypto.CreateAddress(sender, 0)))
}
