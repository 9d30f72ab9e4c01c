package program

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/evm/vmerrors"
)

// ContainerKind is how a container will be used, which restricts its exits.
type ContainerKind uint8

const (
	KindRuntime  ContainerKind = iota // deployed code, no RETURNCONTRACT
	KindInitcode                      // EOFCREATE / creation tx target, no STOP or RETURN
)

// subcontainer reference flags
const (
	refEofcreate = 1 << iota
	refReturncontract
)

// ValidateContainer checks the code of every section and, recursively, of
// every subcontainer. Stack heights are not simulated; the interpreter keeps
// its runtime bounds checks for that.
func ValidateContainer(c *Container, kind ContainerKind) error {
	return validateContainer(c, kind, 0)
}

func validateContainer(c *Container, kind ContainerKind, depth int) error {
	if depth > maxContainerDepth {
		return vmerrors.ErrVContainerDepthExceeded
	}
	refs := make([]uint8, len(c.SubContainers))
	visited := make([]bool, len(c.CodeSections))
	visited[0] = true
	queue := []int{0}
	for len(queue) > 0 {
		section := queue[0]
		queue = queue[1:]
		targets, err := validateSection(c, section, kind, refs)
		if err != nil {
			return fmt.Errorf("section %d: %w", section, err)
		}
		for _, t := range targets {
			if !visited[t] {
				visited[t] = true
				queue = append(queue, t)
			}
		}
	}
	for i, v := range visited {
		if !v {
			return fmt.Errorf("%w: section %d", vmerrors.ErrVUnreachableCode, i)
		}
	}
	for i, sub := range c.SubContainers {
		var subKind ContainerKind
		switch refs[i] {
		case refEofcreate:
			subKind = KindInitcode
		case refReturncontract:
			subKind = KindRuntime
		case 0:
			return fmt.Errorf("%w: container %d", vmerrors.ErrVUnreferencedContainer, i)
		default:
			return fmt.Errorf("%w: container %d", vmerrors.ErrVIncompatibleContainer, i)
		}
		// only RETURNCONTRACT targets may wait for aux data
		if subKind == KindInitcode && len(sub.Data) < sub.DataSize {
			return fmt.Errorf("container %d: %w", i, vmerrors.ErrVTruncatedData)
		}
		if err := validateContainer(sub, subKind, depth+1); err != nil {
			return fmt.Errorf("container %d: %w", i, err)
		}
	}
	return nil
}

// validateSection returns the sections reached through CALLF and JUMPF.
func validateSection(c *Container, section int, kind ContainerKind, refs []uint8) ([]int, error) {
	code := c.CodeSections[section]
	typ := c.Types[section]

	// first pass: boundaries and immediates
	starts := make([]bool, len(code))
	var last byte
	for pc := 0; pc < len(code); {
		op := code[pc]
		info := eofOps[op]
		if !info.valid {
			return nil, fmt.Errorf("%w: 0x%02x at %d", vmerrors.ErrVUndefinedInstruction, op, pc)
		}
		size := info.immediate
		if op == opRjumpv {
			if pc+1 >= len(code) {
				return nil, fmt.Errorf("%w: RJUMPV at %d", vmerrors.ErrVTruncatedImmediate, pc)
			}
			size = 1 + 2*(int(code[pc+1])+1)
		}
		if pc+1+size > len(code) {
			return nil, fmt.Errorf("%w: 0x%02x at %d", vmerrors.ErrVTruncatedImmediate, op, pc)
		}
		if op == opStop || op == opReturn {
			if kind == KindInitcode {
				return nil, fmt.Errorf("%w: 0x%02x in initcode", vmerrors.ErrVIncompatibleContainer, op)
			}
		}
		if op == opReturncontract && kind == KindRuntime {
			return nil, fmt.Errorf("%w: RETURNCONTRACT in runtime code", vmerrors.ErrVIncompatibleContainer)
		}
		starts[pc] = true
		last = op
		pc += 1 + size
	}
	if !eofOps[last].terminating {
		return nil, fmt.Errorf("%w: ends with 0x%02x", vmerrors.ErrVInvalidCodeTermination, last)
	}

	// second pass: targets and indices
	var (
		targets    []int
		returns    bool
		jumpsToRet bool
	)
	checkRel := func(pc, after int, off int16) error {
		dest := after + int(off)
		if dest < 0 || dest >= len(code) || !starts[dest] {
			return fmt.Errorf("%w: pc %d offset %d", vmerrors.ErrVInvalidJumpDest, pc, off)
		}
		return nil
	}
	for pc := 0; pc < len(code); pc += 1 + immediateSize(code, pc) {
		op := code[pc]
		switch op {
		case opRjump, opRjumpi:
			off := int16(binary.BigEndian.Uint16(code[pc+1:]))
			if err := checkRel(pc, pc+3, off); err != nil {
				return nil, err
			}
		case opRjumpv:
			count := int(code[pc+1]) + 1
			after := pc + 2 + 2*count
			for i := 0; i < count; i++ {
				off := int16(binary.BigEndian.Uint16(code[pc+2+2*i:]))
				if err := checkRel(pc, after, off); err != nil {
					return nil, err
				}
			}
		case opCallf, opJumpf:
			idx := int(binary.BigEndian.Uint16(code[pc+1:]))
			if idx >= len(c.CodeSections) {
				return nil, fmt.Errorf("%w: %d", vmerrors.ErrVInvalidSectionArgument, idx)
			}
			if op == opCallf && c.Types[idx].NonReturning() {
				return nil, fmt.Errorf("%w: CALLF to non-returning section %d", vmerrors.ErrVInvalidSectionArgument, idx)
			}
			if op == opJumpf && !c.Types[idx].NonReturning() {
				if typ.NonReturning() {
					return nil, fmt.Errorf("%w: JUMPF to returning section %d", vmerrors.ErrVInvalidNonReturning, idx)
				}
				jumpsToRet = true
			}
			targets = append(targets, idx)
		case opRetf:
			if typ.NonReturning() {
				return nil, fmt.Errorf("%w: RETF at %d", vmerrors.ErrVInvalidNonReturning, pc)
			}
			returns = true
		case opDataloadn:
			off := int(binary.BigEndian.Uint16(code[pc+1:]))
			if off+32 > c.DataSize {
				return nil, fmt.Errorf("%w: offset %d", vmerrors.ErrVInvalidDataloadnArg, off)
			}
		case opEofcreate, opReturncontract:
			idx := int(code[pc+1])
			if idx >= len(c.SubContainers) {
				return nil, fmt.Errorf("%w: %d", vmerrors.ErrVInvalidContainerArg, idx)
			}
			if op == opEofcreate {
				refs[idx] |= refEofcreate
			} else {
				refs[idx] |= refReturncontract
			}
		}
	}
	if !typ.NonReturning() && !returns && !jumpsToRet {
		return nil, fmt.Errorf("%w: returning section never returns", vmerrors.ErrVInvalidNonReturning)
	}
	return targets, nil
}
