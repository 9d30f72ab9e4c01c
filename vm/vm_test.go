package vm

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func RunEVMBytecode(bytecode []byte, input []byte) ([]byte, error) {
	host := NewMemoryHost()
	host.SetAccount(target, 0, 0, bytecode)

	evm := New(host, rules.ForFork(rules.Cancun), Config{}, testBlock(), TxContext{Origin: sender, GasPrice: big.NewInt(1)})
	o := evm.Execute(context.Background(), &Message{Kind: KindCall, Caller: sender, To: target, Input: input, Gas: 1_000_000})
	if !o.Success() {
		return o.Output, fmt.Errorf("%s: %w", o.Status, o.Err)
	}
	return o.Output, nil
}

func TestSimpleAdd(t *testing.T) {
	// PUSH1 0x02 PUSH1 0x03 ADD MSTORE PUSH1 0x20 PUSH1 0x00 RETURN
	code := []byte{
		0x60, 0x02, // PUSH1 0x02
		0x60, 0x03, // PUSH1 0x03
		0x01,       // ADD
		0x60, 0x00, // PUSH1 0x00
		0x52,       // MSTORE
		0x60, 0x20, // PUSH1 0x20
		0x60, 0x00, // PUSH1 0x00
		0xf3, // RETURN
	}
	out, err := RunEVMBytecode(code, []byte{})
	if err != nil {
		t.Fatal(err)
	}
	if new(big.Int).SetBytes(out).Int64() != 5 {
		t.Fatalf("Expected 5, got %x", out)
	}
}

func getRunSelector(idx uint8) []byte {
	// Method selector for run(uint8): first 4 bytes of keccak256("run(uint8)")
	selector := []byte{0xc4, 0xe5, 0x55, 0x7a}

	// ABI encode the uint8 parameter (32 bytes, big-endian)
	param := make([]byte, 32)
	param[31] = idx // uint8 goes in the least significant byte

	// Combine selector + parameter
	return append(selector, param...)
}

func TestRunRecipeIdx0(t *testing.T) {
	// solc --optimize --bin-runtime Recipes.sol
	// get the "Binary of the runtime part:"
	bytecodeHex := "608060405234801561000f575f5ffd5b5060043610610029575f3560e01c8063c4e5557a1461002d575b5f5ffd5b61004061003b36600461027f565b610052565b60405190815260200160405180910390f35b5f8160ff165f0361006d57610067600a6100a0565b92915050565b8160ff166001036100845761006760056003610113565b8160ff1660020361009957610067600a610179565b505f919050565b5f815f036100af57505f919050565b81600114806100be5750816002145b156100cb57506001919050565b5f6001808260035b86811161010857826100e585876102b3565b6100ef91906102b3565b939450919291829150610101816102c6565b90506100d3565b509095945050505050565b5f82158061011f575081155b8061012957508282115b1561013557505f610067565b826101408484610228565b61015e61014e6001876102de565b6101596001876102de565b610228565b61016891906102f1565b6101729190610308565b9392505050565b5f815f0361018957506001919050565b8160010361019957506001919050565b6001805f60025b85811161021e576101b28160026102b3565b846101be6001846102de565b6101c99060036102f1565b6101d391906102f1565b846101df8460026102f1565b6101ea9060016102b3565b6101f491906102f1565b6101fe91906102b3565b6102089190610308565b929350829150610217816102c6565b90506101a0565b5090949350505050565b5f8282111561023857505f610067565b60015f5b838110156102775761024f8160016102b3565b61025982876102de565b61026390846102f1565b61026d9190610308565b915060010161023c565b509392505050565b5f6020828403121561028f575f5ffd5b813560ff81168114610172575f5ffd5b634e487b7160e01b5f52601160045260245ffd5b808201808211156100675761006761029f565b5f600182016102d7576102d761029f565b5060010190565b818103818111156100675761006761029f565b80820281158282048414176100675761006761029f565b5f8261032257634e487b7160e01b5f52601260045260245ffd5b50049056fea26469706673582212202ba054cf30a1b9a860d56e0a582481cd9c33c5c80f6fc6f4b02d82a199c6e80064736f6c634300081e0033"
	bytecode := common.FromHex(bytecodeHex)

	for i := 0; i < 3; i++ {
		out, err := RunEVMBytecode(bytecode, getRunSelector(uint8(i)))
		if err != nil {
			t.Fatal(err)
		}

		result := new(big.Int).SetBytes(out)
		fmt.Printf("Output: %x (decimal: %s)\n", out, result.String())
		if i == 0 {
			// tribonacci(10) should return 149
			expected := big.NewInt(149)
			if result.Cmp(expected) != 0 {
				t.Fatalf("Expected %s, got %s", expected.String(), result.String())
			}
		} else if i == 1 {
			// narayana(5, 3) should return 12
			expected := big.NewInt(12)
			if result.Cmp(expected) != 0 {
				t.Fatalf("Expected %s, got %s", expected.String(), result.String())
			}
		} else if i == 2 {
			// motzkin(10) should return 2188
			expected := big.NewInt(2188)
			if result.Cmp(expected) != 0 {
				t.Fatalf("Expected %s, got %s", expected.String(), result.String())
			}
		}
	}
}

func TestStackBounds(t *testing.T) {
	st := newstack()
	defer returnStack(st)
	for i := 0; i < StackLimit; i++ {
		require.NoError(t, st.Push(uint256.NewInt(uint64(i))))
	}
	assert.ErrorIs(t, st.Push(uint256.NewInt(0)), vmerrors.ErrSStackOverflow)
	assert.ErrorIs(t, st.Dup(1), vmerrors.ErrSStackOverflow)

	top, err := st.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(StackLimit-1), top.Uint64())
	require.NoError(t, st.Swap(2))
	assert.Equal(t, uint64(StackLimit-3), st.Back(0).Uint64())
	assert.Equal(t, uint64(StackLimit-1), st.Back(2).Uint64())

	for st.Len() > 0 {
		_, err := st.Pop()
		require.NoError(t, err)
	}
	_, err = st.Pop()
	assert.ErrorIs(t, err, vmerrors.ErrSStackUnderflow)
	_, err = st.Peek(0)
	assert.ErrorIs(t, err, vmerrors.ErrSStackUnderflow)
	assert.ErrorIs(t, st.Swap(1), vmerrors.ErrSStackUnderflow)
}

func TestStackExchange(t *testing.T) {
	st := newstack()
	defer returnStack(st)
	for i := 1; i <= 4; i++ {
		st.push(uint256.NewInt(uint64(i)))
	}
	// depths: 0 -> 4, 1 -> 3, 2 -> 2, 3 -> 1
	st.exchange(1, 3)
	assert.Equal(t, uint64(1), st.Back(1).Uint64())
	assert.Equal(t, uint64(3), st.Back(3).Uint64())
	st.dup(4)
	assert.Equal(t, uint64(3), st.peek().Uint64())
}

func TestMemoryZeroFillAndRoundTrip(t *testing.T) {
	g := rules.DefaultGasSchedule(rules.Cancun)
	m := NewMemory(&g, 0)

	size, cost, err := m.EnsureCapacity(40, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(64), size)
	assert.Equal(t, uint64(6), cost)
	m.Resize(size)
	assert.Equal(t, make([]byte, 64), m.Data())

	require.NoError(t, m.Write(40, []byte{1, 2, 3}))
	got, err := m.Read(40, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, got)

	m.Set32(0, uint256.NewInt(0xff))
	assert.Equal(t, byte(0xff), m.Data()[31])

	// growing is priced on the marginal words only
	_, cost, err = m.EnsureCapacity(64, 32)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cost)

	_, err = m.Read(60, 8)
	assert.ErrorIs(t, err, vmerrors.ErrGGasUintOverflow)

	m.Copy(1, 40, 3)
	assert.Equal(t, []byte{1, 2, 3}, m.GetCopy(1, 3))
}

func TestMemoryLimit(t *testing.T) {
	g := rules.DefaultGasSchedule(rules.Cancun)
	m := NewMemory(&g, 1024)
	_, _, err := m.EnsureCapacity(1000, 100)
	assert.ErrorIs(t, err, vmerrors.ErrMMemoryLimitExceeded)
	_, _, err = m.EnsureCapacity(^uint64(0), 2)
	assert.ErrorIs(t, err, vmerrors.ErrGGasUintOverflow)
	assert.Equal(t, uint64(1)<<59, toWordSize(^uint64(0)))
	assert.Equal(t, uint64(2), toWordSize(33))

	host := NewMemoryHost()
	// MLOAD(4096)
	host.SetAccount(target, 0, 0, []byte{byte(PUSH2), 0x10, 0x00, byte(MLOAD), byte(STOP)})
	o := newTestEVM(host, rules.Cancun, Config{MemoryLimit: 1024}).Execute(context.Background(), callMsg(target, 100_000))
	assert.ErrorIs(t, o.Err, vmerrors.ErrMMemoryLimitExceeded)
}
