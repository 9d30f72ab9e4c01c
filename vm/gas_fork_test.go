package vm

import (
	"context"
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/rules"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gasCost struct{ used, refund uint64 }

// sstoreCode writes each value to slot 0 in turn.
func sstoreCode(values ...byte) []byte {
	var code []byte
	for _, v := range values {
		code = append(code, byte(PUSH1), v, byte(PUSH1), 0, byte(SSTORE))
	}
	return append(code, byte(STOP))
}

func TestSstoreGasByFork(t *testing.T) {
	cases := []struct {
		name     string
		original byte
		writes   []byte
		costs    map[rules.Fork]gasCost
	}{
		{"set", 0, []byte{1}, map[rules.Fork]gasCost{
			rules.Frontier:       {20006, 0},
			rules.Petersburg:     {20006, 0},
			rules.Constantinople: {20006, 0},
			rules.Istanbul:       {20006, 0},
			rules.Berlin:         {22106, 0},
			rules.London:         {22106, 0},
			rules.Cancun:         {22106, 0},
		}},
		{"set then reset to zero", 0, []byte{1, 0}, map[rules.Fork]gasCost{
			rules.Frontier:       {25012, 15000},
			rules.Petersburg:     {25012, 15000},
			rules.Constantinople: {20212, 19800},
			rules.Istanbul:       {20812, 19200},
			rules.Berlin:         {22212, 19900},
			rules.London:         {22212, 19900},
			rules.Cancun:         {22212, 19900},
		}},
		{"clear", 1, []byte{0}, map[rules.Fork]gasCost{
			rules.Frontier:       {5006, 15000},
			rules.Petersburg:     {5006, 15000},
			rules.Constantinople: {5006, 15000},
			rules.Istanbul:       {5006, 15000},
			rules.Berlin:         {5006, 15000},
			rules.London:         {5006, 4800},
			rules.Cancun:         {5006, 4800},
		}},
		{"dirty then reset to original", 1, []byte{2, 1}, map[rules.Fork]gasCost{
			rules.Frontier:       {10012, 0},
			rules.Petersburg:     {10012, 0},
			rules.Constantinople: {5212, 4800},
			rules.Istanbul:       {5812, 4200},
			rules.Berlin:         {5112, 2800},
			rules.London:         {5112, 2800},
			rules.Cancun:         {5112, 2800},
		}},
		{"clear then recreate", 1, []byte{0, 1}, map[rules.Fork]gasCost{
			rules.Frontier:       {25012, 15000},
			rules.Petersburg:     {25012, 15000},
			rules.Constantinople: {5212, 4800},
			rules.Istanbul:       {5812, 4200},
			rules.Berlin:         {5112, 2800},
			rules.London:         {5112, 2800},
			rules.Cancun:         {5112, 2800},
		}},
	}
	for _, c := range cases {
		for fork, want := range c.costs {
			t.Run(c.name+"/"+fork.String(), func(t *testing.T) {
				host := NewMemoryHost()
				host.SetAccount(target, 0, 0, sstoreCode(c.writes...))
				if c.original != 0 {
					host.SetState(target, common.Hash{}, common.BytesToHash([]byte{c.original}))
				}
				host.Commit()

				evm := newTestEVM(host, fork, Config{})
				o := evm.Execute(context.Background(), callMsg(target, 100_000))
				require.Equal(t, Halted, o.Status, o.String())
				assert.Equal(t, want.used, o.GasUsed)
				assert.Equal(t, min(want.refund, evm.Rules().MaxRefund(want.used)), o.GasRefunded)
				last := c.writes[len(c.writes)-1]
				assert.Equal(t, common.BytesToHash([]byte{last}), host.GetState(target, common.Hash{}))
			})
		}
	}
}

func TestCallToNewAccountGasByFork(t *testing.T) {
	fresh := common.HexToAddress("0xdead")
	cases := []struct {
		fork      rules.Fork
		withValue uint64
		noValue   uint64
	}{
		// pre-EIP-158 the new account surcharge applies whenever the callee is missing
		{rules.Frontier, 31776, 25076},
		{rules.Homestead, 31776, 25076},
		{rules.TangerineWhistle, 32436, 25736},
		// from EIP-158 only a value transfer to an empty account pays it
		{rules.SpuriousDragon, 32436, 736},
		// cold account access from EIP-2929
		{rules.Berlin, 34336, 2636},
		{rules.Cancun, 34336, 2636},
	}
	for _, c := range cases {
		t.Run(c.fork.String(), func(t *testing.T) {
			for value, want := range map[byte]uint64{1: c.withValue, 0: c.noValue} {
				host := NewMemoryHost()
				host.SetAccount(target, 1, 0, callCode(fresh, value))
				o := newTestEVM(host, c.fork, Config{}).Execute(context.Background(), callMsg(target, 200_000))
				require.Equal(t, Halted, o.Status, o.String())
				assert.Equal(t, uint64(1), word(o.Output))
				assert.Equal(t, want, o.GasUsed, "value %d", value)
				assert.Equal(t, uint64(value), host.GetBalance(fresh).Uint64())
			}
		})
	}
}

// create2Code runs CREATE2 with empty initcode and salt 0 and returns the
// pushed result.
var create2Code = []byte{
	byte(PUSH1), 0, byte(PUSH1), 0, byte(PUSH1), 0, byte(PUSH1), 0, // salt, size, offset, value
	byte(CREATE2),
	byte(PUSH1), 0, byte(MSTORE),
	byte(PUSH1), 32, byte(PUSH1), 0, byte(RETURN),
}

func TestCreate2CollisionGasByFork(t *testing.T) {
	created := crypto.CreateAddress2(target, [32]byte{}, crypto.Keccak256(nil))
	for _, fork := range []rules.Fork{rules.Constantinople, rules.Istanbul, rules.Berlin, rules.Shanghai, rules.Cancun} {
		t.Run(fork.String(), func(t *testing.T) {
			host := NewMemoryHost()
			host.SetAccount(target, 0, 0, create2Code)
			o := newTestEVM(host, fork, Config{}).Execute(context.Background(), callMsg(target, 100_000))
			require.Equal(t, Halted, o.Status, o.String())
			assert.Equal(t, created, common.BytesToAddress(o.Output))
			// the initcode frame gets back everything it was given
			assert.Equal(t, uint64(32027), o.GasUsed)

			host = NewMemoryHost()
			host.SetAccount(target, 0, 0, create2Code)
			host.SetAccount(created, 0, 1, nil)
			o = newTestEVM(host, fork, Config{}).Execute(context.Background(), callMsg(target, 100_000))
			require.Equal(t, Halted, o.Status, o.String())
			assert.Zero(t, word(o.Output), "CREATE2 pushes 0 on a collision")
			// 67988 left after CREATE2 is charged, all but 1/64 of it forwarded and burnt
			assert.Equal(t, uint64(100_000-1062+15), o.GasUsed)
			assert.Equal(t, uint64(1), host.GetNonce(target), "the creator nonce is bumped anyway")
			assert.True(t, host.GetBalance(created).Eq(uint256.NewInt(0)))
		})
	}
}
