package program

// Bits of the per-position mask K.
const (
	kInstruction = 1 << 0 // an opcode starts here, not push data
	kBlockStart  = 1 << 1 // first instruction of a basic block
	kJumpdest    = 1 << 2 // valid JUMPDEST
)

// analyzeLegacy builds K for legacy code. Push operands are skipped so a 0x5b
// byte inside them is not a jump destination. Operands running past the end
// are treated as zero padding.
func analyzeLegacy(code []byte) []byte {
	k := make([]byte, len(code))
	blockStart := true
	for pc := 0; pc < len(code); {
		op := code[pc]
		k[pc] |= kInstruction
		if op == opJumpdest {
			k[pc] |= kJumpdest
			blockStart = true
		}
		if blockStart {
			k[pc] |= kBlockStart
			blockStart = false
		}
		switch op {
		case opStop, opJump, opJumpi, opReturn, opRevert, opInvalid, opSelfdestruct:
			blockStart = true
		}
		pc++
		if op >= opPush1 && op <= opPush32 {
			pc += int(op - opPush1 + 1)
		}
	}
	return k
}

// ProgramStats contains statistics about a program
type ProgramStats struct {
	InstructionCount   int          // Total number of instructions
	BasicBlockCount    int          // Total number of basic blocks
	JumpdestCount      int          // Valid JUMPDEST positions
	OpcodeDistribution map[byte]int // Distribution of opcodes
}

// Analyze returns instruction and basic block counts for the legacy code or,
// for a container, summed over its code sections.
func (p *Program) Analyze() *ProgramStats {
	stats := &ProgramStats{
		OpcodeDistribution: make(map[byte]int),
	}
	if p.Container != nil {
		for _, code := range p.Container.CodeSections {
			stats.BasicBlockCount++
			forEachInstruction(code, func(pc int, op byte) {
				stats.InstructionCount++
				stats.OpcodeDistribution[op]++
				if op == opRjump || op == opRjumpi || op == opRjumpv {
					stats.BasicBlockCount++
				}
			})
		}
		return stats
	}
	for i := 0; i < len(p.K); i++ {
		if p.K[i]&kInstruction == 0 {
			continue
		}
		stats.InstructionCount++
		stats.OpcodeDistribution[p.Code[i]]++
		if p.K[i]&kBlockStart != 0 {
			stats.BasicBlockCount++
		}
		if p.K[i]&kJumpdest != 0 {
			stats.JumpdestCount++
		}
	}
	return stats
}

// InstructionInfo describes one decoded instruction
type InstructionInfo struct {
	PC                int    // Position in code
	Opcode            byte   // Instruction opcode
	Immediate         []byte // Push data or container immediates
	IsBasicBlockStart bool   // Whether this instruction starts a basic block
}

// GetInstructions lists the legacy instructions of the program, or those of
// code section 0 for a container.
func (p *Program) GetInstructions() []InstructionInfo {
	var instructions []InstructionInfo
	if p.Container != nil {
		return p.SectionInstructions(0)
	}
	for i := 0; i < len(p.K); i++ {
		if p.K[i]&kInstruction == 0 {
			continue
		}
		info := InstructionInfo{
			PC:                i,
			Opcode:            p.Code[i],
			IsBasicBlockStart: p.K[i]&kBlockStart != 0,
		}
		if op := p.Code[i]; op >= opPush1 && op <= opPush32 {
			end := min(i+1+int(op-opPush1+1), len(p.Code))
			info.Immediate = p.Code[i+1 : end]
		}
		instructions = append(instructions, info)
	}
	return instructions
}

// SectionInstructions decodes a container code section.
func (p *Program) SectionInstructions(section int) []InstructionInfo {
	if p.Container == nil || section >= len(p.Container.CodeSections) {
		return nil
	}
	code := p.Container.CodeSections[section]
	var instructions []InstructionInfo
	first := true
	forEachInstruction(code, func(pc int, op byte) {
		size := immediateSize(code, pc)
		end := min(pc+1+size, len(code))
		instructions = append(instructions, InstructionInfo{
			PC:                pc,
			Opcode:            op,
			Immediate:         code[pc+1 : end],
			IsBasicBlockStart: first,
		})
		first = false
	})
	return instructions
}

// GetBasicBlockBoundaries returns the PC positions where each basic block starts
func (p *Program) GetBasicBlockBoundaries() []int {
	var boundaries []int
	for i := 0; i < len(p.K); i++ {
		if p.K[i]&kBlockStart != 0 {
			boundaries = append(boundaries, i)
		}
	}
	return boundaries
}

// immediateSize is the number of immediate bytes after the container opcode at pc.
func immediateSize(code []byte, pc int) int {
	op := code[pc]
	if op == opRjumpv {
		if pc+1 >= len(code) {
			return 1
		}
		return 1 + 2*(int(code[pc+1])+1)
	}
	return eofOps[op].immediate
}

func forEachInstruction(code []byte, fn func(pc int, op byte)) {
	for pc := 0; pc < len(code); {
		fn(pc, code[pc])
		pc += 1 + immediateSize(code, pc)
	}
}
