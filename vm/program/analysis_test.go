package program

import (
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJumpdestSkipsPushData(t *testing.T) {
	// PUSH1 0x5b JUMPDEST PUSH2 0x5b
	code := []byte{0x60, 0x5b, 0x5b, 0x61, 0x5b}
	p := NewLegacy(code, common.Hash{})

	assert.False(t, p.ValidJumpdest(1), "operand of PUSH1")
	assert.True(t, p.ValidJumpdest(2))
	assert.False(t, p.ValidJumpdest(4), "truncated operand of PUSH2")
	assert.False(t, p.ValidJumpdest(5))
	assert.False(t, p.ValidJumpdest(1<<40))
	assert.NotEqual(t, common.Hash{}, p.Hash)
}

func TestAnalyze(t *testing.T) {
	// PUSH1 4 JUMP STOP JUMPDEST STOP
	code := []byte{0x60, 0x04, 0x56, 0x00, 0x5b, 0x00}
	p := NewLegacy(code, common.Hash{})

	stats := p.Analyze()
	assert.Equal(t, 5, stats.InstructionCount)
	// blocks start at 0, 3 (after JUMP) and 4 (JUMPDEST)
	assert.Equal(t, 3, stats.BasicBlockCount)
	assert.Equal(t, 1, stats.JumpdestCount)
	assert.Equal(t, 2, stats.OpcodeDistribution[0x00])
	assert.Equal(t, []int{0, 3, 4}, p.GetBasicBlockBoundaries())
}

func TestGetInstructions(t *testing.T) {
	code := []byte{0x61, 0x01, 0x02, 0x01}
	p := NewLegacy(code, common.Hash{})

	instructions := p.GetInstructions()
	require.Len(t, instructions, 2)
	assert.Equal(t, 0, instructions[0].PC)
	assert.Equal(t, []byte{0x01, 0x02}, instructions[0].Immediate)
	assert.True(t, instructions[0].IsBasicBlockStart)
	assert.Equal(t, 3, instructions[1].PC)
	assert.Equal(t, byte(0x01), instructions[1].Opcode)
	assert.False(t, instructions[1].IsBasicBlockStart)
}

func TestSectionInstructions(t *testing.T) {
	// RJUMPV with two targets, then STOPs
	c := &Container{
		Types:        []FunctionType{{0, nonReturning, 1}},
		CodeSections: [][]byte{{0x5f, 0xe2, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00}},
	}
	p := FromContainer(c)
	ins := p.SectionInstructions(0)
	require.Len(t, ins, 4)
	assert.Equal(t, byte(0xe2), ins[1].Opcode)
	assert.Len(t, ins[1].Immediate, 5)
	assert.Equal(t, 7, ins[2].PC)
	assert.Nil(t, p.SectionInstructions(3))
}
