package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFork(t *testing.T) {
	for _, f := range Forks() {
		got, err := ParseFork(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	f, err := ParseFork("Merge")
	require.NoError(t, err)
	assert.Equal(t, Paris, f)

	_, err = ParseFork("atlantis")
	require.Error(t, err)
}

func TestGasScheduleByFork(t *testing.T) {
	cases := []struct {
		fork        Fork
		sload       uint64
		balance     uint64
		clearRef    uint64
		coldSload   uint64
		coldAccount uint64
	}{
		{Frontier, 50, 20, 15000, 0, 0},
		{TangerineWhistle, 200, 400, 15000, 0, 0},
		{Istanbul, 800, 700, 15000, 0, 0},
		{Berlin, 100, 100, 15000, 2100, 2600},
		{London, 100, 100, 4800, 2100, 2600},
	}
	for _, c := range cases {
		t.Run(c.fork.String(), func(t *testing.T) {
			g := DefaultGasSchedule(c.fork)
			assert.Equal(t, c.sload, g.Sload)
			assert.Equal(t, c.balance, g.Balance)
			assert.Equal(t, c.clearRef, g.SstoreClearRefund)
			assert.Equal(t, c.coldSload, g.ColdSload)
			assert.Equal(t, c.coldAccount, g.ColdAccountAccess)
		})
	}
}

func TestRuleSetPolicy(t *testing.T) {
	frontier := ForFork(Frontier)
	assert.Equal(t, uint64(2), frontier.RefundQuotient)
	assert.Equal(t, SstoreLegacy, frontier.Sstore)
	gas, ok := frontier.CallGas(1000, uint256.NewInt(5000))
	assert.True(t, ok)
	assert.Equal(t, uint64(5000), gas, "the request is forwarded verbatim before EIP-150")
	assert.Equal(t, uint64(1000), frontier.Forwardable(1000))
	_, ok = frontier.CallGas(1000, new(uint256.Int).Lsh(uint256.NewInt(1), 64))
	assert.False(t, ok)

	london := ForFork(London)
	assert.Equal(t, uint64(5), london.RefundQuotient)
	assert.Equal(t, SstoreNetMetered, london.Sstore)
	assert.Equal(t, 1024, london.MaxCallDepth)
	assert.True(t, london.ForfeitGasOnError)
	// 64000 available keeps 1000 back
	for _, c := range []struct {
		requested *uint256.Int
		want      uint64
	}{
		{uint256.NewInt(100000), 63000},
		{uint256.NewInt(500), 500},
		{new(uint256.Int).Lsh(uint256.NewInt(1), 70), 63000},
	} {
		gas, ok := london.CallGas(64000, c.requested)
		assert.True(t, ok)
		assert.Equal(t, c.want, gas, c.requested.Dec())
	}
	assert.Equal(t, uint64(63000), london.Forwardable(64000))
	assert.Equal(t, uint64(200), london.MaxRefund(1000))

	assert.Equal(t, SstoreNetMetered, ForFork(Constantinople).Sstore)
	assert.Equal(t, SstoreLegacy, ForFork(Petersburg).Sstore)
	assert.False(t, Latest().IsEOF())
	assert.True(t, ForFork(Osaka).IsEOF())
	for _, name := range []string{"latest", "prague"} {
		f, err := ParseFork(name)
		require.NoError(t, err)
		assert.False(t, ForFork(f).IsEOF(), name)
	}
	f, err := ParseFork("eof")
	require.NoError(t, err)
	assert.Equal(t, Osaka, f)
}

func TestReadRuleSet(t *testing.T) {
	rs, err := ReadRuleSet("cancun")
	require.NoError(t, err)
	assert.Equal(t, Cancun, rs.Fork)

	rs, err = ReadRuleSet("devnet")
	require.NoError(t, err)
	assert.Equal(t, "devnet", rs.Name)
	assert.Equal(t, Osaka, rs.Fork)
	assert.Equal(t, 0, rs.MaxCodeSize)
	assert.Equal(t, uint64(32<<20), rs.MemoryLimit)

	rs, err = ReadRuleSet("legacy")
	require.NoError(t, err)
	assert.Equal(t, 256, rs.MaxCallDepth)

	path := filepath.Join(t.TempDir(), "custom.json")
	body := `{"base":"london","gas":{"sload":7,"cold_sload":9},"forfeit_gas_on_error":false,"refund_quotient":4}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	rs, err = ReadRuleSet(path)
	require.NoError(t, err)
	assert.Equal(t, London, rs.Fork)
	assert.Equal(t, uint64(7), rs.Gas.Sload)
	assert.Equal(t, uint64(9), rs.Gas.ColdSload)
	// untouched keys keep the london value
	assert.Equal(t, uint64(4800), rs.Gas.SstoreClearRefund)
	assert.False(t, rs.ForfeitGasOnError)
	assert.Equal(t, uint64(4), rs.RefundQuotient)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"base":"london","max_call_depth":0}`), 0o644))
	_, err = ReadRuleSet(bad)
	require.Error(t, err)

	_, err = ReadRuleSet(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	assert.Equal(t, []string{"devnet", "legacy"}, Presets())
}

func TestCloneIsIndependent(t *testing.T) {
	a := ForFork(Shanghai)
	b := a.Clone()
	b.Gas.Sload = 1
	b.MaxCallDepth = 3
	assert.Equal(t, uint64(100), a.Gas.Sload)
	assert.Equal(t, 1024, a.MaxCallDepth)
}
