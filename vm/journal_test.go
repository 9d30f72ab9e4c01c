package vm

import (
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal() (*MemoryHost, *Journal) {
	host := NewMemoryHost()
	return host, newJournal(host, newSubstate())
}

func TestNestedRewindKeepsEnclosingEntries(t *testing.T) {
	host, j := newTestJournal()
	key := common.BytesToHash([]byte{1})

	outer := j.Checkpoint()
	j.SetBalance(target, uint256.NewInt(10))
	j.SetState(target, key, common.BytesToHash([]byte{0xaa}))

	inner := j.Checkpoint()
	j.SetBalance(target, uint256.NewInt(20))
	j.SetState(target, key, common.BytesToHash([]byte{0xbb}))
	j.SetNonce(other, 3)
	j.WarmAccount(other)
	require.Equal(t, 2, j.Depth())

	j.Rewind(inner)
	assert.Equal(t, uint64(10), host.GetBalance(target).Uint64())
	assert.Equal(t, common.BytesToHash([]byte{0xaa}), host.GetState(target, key))
	assert.Zero(t, host.GetNonce(other))
	assert.False(t, j.sub.IsWarmAccount(other))
	assert.Equal(t, 1, j.Depth())

	j.Commit(outer)
	assert.Equal(t, uint64(10), host.GetBalance(target).Uint64())
	assert.Zero(t, j.Depth())
}

func TestCommittedChildRewindsWithParent(t *testing.T) {
	host, j := newTestJournal()
	host.SetAccount(target, 1, 0, nil)

	outer := j.Checkpoint()
	inner := j.Checkpoint()
	j.SetBalance(target, uint256.NewInt(5))
	j.SetCode(target, []byte{byte(STOP)})
	j.AddLog(&types.Log{Address: target})
	j.Commit(inner)

	assert.Equal(t, uint64(5), host.GetBalance(target).Uint64())
	assert.Len(t, j.sub.Logs(), 1)

	j.Rewind(outer)
	assert.Equal(t, uint64(1), host.GetBalance(target).Uint64())
	assert.Empty(t, host.GetCode(target))
	assert.Empty(t, j.sub.Logs())
	assert.Zero(t, j.Len())
}

func TestCommitMatchesInlineChanges(t *testing.T) {
	apply := func(j *Journal, nested bool) {
		cp := -1
		if nested {
			cp = j.Checkpoint()
		}
		j.SetBalance(target, uint256.NewInt(9))
		j.SetTransient(target, common.Hash{}, common.BytesToHash([]byte{1}))
		j.Touch(other)
		if nested {
			j.Commit(cp)
		}
	}
	hostA, ja := newTestJournal()
	hostB, jb := newTestJournal()
	apply(ja, true)
	apply(jb, false)

	assert.Equal(t, hostA.GetBalance(target), hostB.GetBalance(target))
	assert.Equal(t, ja.sub.GetTransient(target, common.Hash{}), jb.sub.GetTransient(target, common.Hash{}))
	assert.ElementsMatch(t, ja.sub.Touched(), jb.sub.Touched())
	assert.Equal(t, ja.Len(), jb.Len())
}

func TestCreatedAccountIsRemovedOnRewind(t *testing.T) {
	host, j := newTestJournal()
	cp := j.Checkpoint()
	j.CreateAccount(other, true)
	j.SetNonce(other, 1)
	assert.True(t, host.Exist(other))
	assert.True(t, j.sub.WasCreated(other))

	j.Rewind(cp)
	assert.False(t, host.Exist(other))
	assert.False(t, j.sub.WasCreated(other))
}

func TestRewindOfOuterCheckpointPanics(t *testing.T) {
	_, j := newTestJournal()
	outer := j.Checkpoint()
	j.Checkpoint()
	assert.Panics(t, func() { j.Rewind(outer) })
}

func TestRipemdTouchSurvivesRewind(t *testing.T) {
	_, j := newTestJournal()
	cp := j.Checkpoint()
	j.Touch(ripemdAddress)
	j.Touch(other)
	j.Rewind(cp)
	assert.ElementsMatch(t, []common.Address{ripemdAddress}, j.sub.Touched())
}
