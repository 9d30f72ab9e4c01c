package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/state"
	"github.com/dop251/goja"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// returns 0x2a as a 32-byte word
const return42 = "0x602a60005260206000f3"

func TestParseHex(t *testing.T) {
	b, err := parseHex("602a")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x60, 0x2a}, b)

	b, err = parseHex("0x")
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = parseHex("0xzz")
	assert.Error(t, err)
}

func TestParseValue(t *testing.T) {
	v, err := parseValue("")
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = parseValue("1000")
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1000), v)

	v, err = parseValue("0x10")
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(16), v)
}

func newTestConsole(t *testing.T) *console {
	t.Helper()
	c := &console{}
	c.env.register(&cobra.Command{})
	var err error
	c.rs, err = c.env.ruleSet()
	require.NoError(t, err)
	c.env.dbPath = filepath.Join(t.TempDir(), "db")
	c.store, c.cache, err = c.env.openState(c.rs)
	require.NoError(t, err)
	t.Cleanup(func() { c.store.Close() })
	c.rt = goja.New()
	c.bind()
	return c
}

func TestConsoleRun(t *testing.T) {
	c := newTestConsole(t)
	out, err := c.eval(`run("` + return42 + `").output`)
	require.NoError(t, err)
	assert.Equal(t, "0x000000000000000000000000000000000000000000000000000000000000002a", out)

	out, err = c.eval(`run("` + return42 + `").status`)
	require.NoError(t, err)
	assert.Equal(t, "halted", out)
}

func TestConsoleStateAndCommit(t *testing.T) {
	c := newTestConsole(t)
	addr := "0x00000000000000000000000000000000000000aa"
	_, err := c.eval(`setBalance("` + addr + `", "0x64"); setStorage("` + addr + `", "0x01", "0x07")`)
	require.NoError(t, err)

	out, err := c.eval(`balance("` + addr + `")`)
	require.NoError(t, err)
	assert.Equal(t, "100", out)

	_, err = c.eval(`commit()`)
	require.NoError(t, err)
	v, err := c.store.Storage(common.HexToAddress(addr), common.BytesToHash([]byte{1}))
	require.NoError(t, err)
	assert.Equal(t, common.BytesToHash([]byte{7}), v)

	_, err = c.eval(`fork("nosuchfork")`)
	assert.Error(t, err)
	out, err = c.eval(`fork("berlin")`)
	require.NoError(t, err)
	assert.Equal(t, "berlin", out)
}

func TestAllocDiff(t *testing.T) {
	addr := common.HexToAddress("0xaa")
	before := state.Alloc{}
	after := state.Alloc{addr: {Nonce: 1}}

	var buf bytes.Buffer
	require.NoError(t, printAllocDiff(&buf, before, before))
	assert.Equal(t, "no state changes\n", buf.String())

	buf.Reset()
	require.NoError(t, printAllocDiff(&buf, before, after))
	assert.Contains(t, buf.String(), "00000000000000000000000000000000000000aa")
}
