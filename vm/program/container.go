package program

import (
	"encoding/binary"
	"fmt"

	"github.com/colorfulnotion/evm/vmerrors"
)

const (
	eofMagic0  = 0xef
	eofMagic1  = 0x00
	eofVersion = 0x01

	kindTypes     = 0x01
	kindCode      = 0x02
	kindContainer = 0x03
	kindData      = 0xff
	terminator    = 0x00

	maxCodeSections      = 1024
	maxContainerSections = 256
	maxInputItems        = 127
	maxOutputItems       = 127
	maxStackHeight       = 1023
	maxContainerDepth    = 32

	nonReturning = 0x80
	typeEntry    = 4
)

// FunctionType is one entry of the type section.
type FunctionType struct {
	Inputs         uint8
	Outputs        uint8
	MaxStackHeight uint16
}

// NonReturning reports whether the section can only exit the frame.
func (t FunctionType) NonReturning() bool { return t.Outputs == nonReturning }

// Container is a parsed EOF v1 container.
type Container struct {
	Types         []FunctionType
	CodeSections  [][]byte
	SubContainers []*Container
	Data          []byte
	// DataSize is the declared size; len(Data) may be smaller in a container
	// that is still waiting for its aux data.
	DataSize int
	raw      []byte
}

// HasEOFPrefix reports whether code starts with the container magic.
func HasEOFPrefix(code []byte) bool {
	return len(code) >= 2 && code[0] == eofMagic0 && code[1] == eofMagic1
}

func readUint16(b []byte, pos int) (int, bool) {
	if pos+2 > len(b) {
		return 0, false
	}
	return int(binary.BigEndian.Uint16(b[pos:])), true
}

// ParseContainer decodes and structurally checks b. Truncated data is only
// accepted when allowTruncatedData is set.
func ParseContainer(b []byte, allowTruncatedData bool) (*Container, error) {
	return parseContainer(b, allowTruncatedData, 0)
}

func parseContainer(b []byte, allowTruncatedData bool, depth int) (*Container, error) {
	if depth > maxContainerDepth {
		return nil, vmerrors.ErrVContainerDepthExceeded
	}
	if !HasEOFPrefix(b) {
		return nil, vmerrors.ErrVInvalidMagic
	}
	if len(b) < 3 || b[2] != eofVersion {
		return nil, vmerrors.ErrVInvalidVersion
	}
	pos := 3

	// types header
	if pos >= len(b) || b[pos] != kindTypes {
		return nil, vmerrors.ErrVMissingTypeHeader
	}
	typesSize, ok := readUint16(b, pos+1)
	if !ok {
		return nil, vmerrors.ErrVMissingTypeHeader
	}
	pos += 3
	if typesSize < typeEntry || typesSize%typeEntry != 0 {
		return nil, fmt.Errorf("%w: type section size %d", vmerrors.ErrVInvalidTypeSize, typesSize)
	}

	// code header
	if pos >= len(b) || b[pos] != kindCode {
		return nil, vmerrors.ErrVMissingCodeHeader
	}
	numCode, ok := readUint16(b, pos+1)
	if !ok {
		return nil, vmerrors.ErrVMissingCodeHeader
	}
	pos += 3
	if numCode == 0 || numCode > maxCodeSections {
		return nil, fmt.Errorf("%w: %d code sections", vmerrors.ErrVInvalidCodeSize, numCode)
	}
	if typesSize/typeEntry != numCode {
		return nil, fmt.Errorf("%w: %d types for %d code sections", vmerrors.ErrVInvalidTypeSize, typesSize/typeEntry, numCode)
	}
	codeSizes := make([]int, numCode)
	for i := range codeSizes {
		size, ok := readUint16(b, pos)
		if !ok {
			return nil, vmerrors.ErrVMissingCodeHeader
		}
		if size == 0 {
			return nil, fmt.Errorf("%w: code section %d is empty", vmerrors.ErrVInvalidCodeSize, i)
		}
		codeSizes[i] = size
		pos += 2
	}

	// optional container header
	var containerSizes []int
	if pos < len(b) && b[pos] == kindContainer {
		numContainers, ok := readUint16(b, pos+1)
		if !ok {
			return nil, vmerrors.ErrVInvalidContainerSize
		}
		pos += 3
		if numContainers == 0 || numContainers > maxContainerSections {
			return nil, fmt.Errorf("%w: %d containers", vmerrors.ErrVInvalidContainerSize, numContainers)
		}
		containerSizes = make([]int, numContainers)
		for i := range containerSizes {
			if pos+4 > len(b) {
				return nil, vmerrors.ErrVInvalidContainerSize
			}
			size := int(binary.BigEndian.Uint32(b[pos:]))
			if size == 0 {
				return nil, fmt.Errorf("%w: container %d is empty", vmerrors.ErrVInvalidContainerSize, i)
			}
			containerSizes[i] = size
			pos += 4
		}
	}

	// data header
	if pos >= len(b) || b[pos] != kindData {
		return nil, vmerrors.ErrVMissingDataHeader
	}
	dataSize, ok := readUint16(b, pos+1)
	if !ok {
		return nil, vmerrors.ErrVMissingDataHeader
	}
	pos += 3
	if pos >= len(b) || b[pos] != terminator {
		return nil, vmerrors.ErrVMissingTerminator
	}
	pos++

	// bodies
	c := &Container{DataSize: dataSize, raw: b}
	if pos+typesSize > len(b) {
		return nil, fmt.Errorf("%w: type section", vmerrors.ErrVInvalidSectionBodySize)
	}
	c.Types = make([]FunctionType, numCode)
	for i := range c.Types {
		t := FunctionType{
			Inputs:         b[pos],
			Outputs:        b[pos+1],
			MaxStackHeight: binary.BigEndian.Uint16(b[pos+2:]),
		}
		if t.Inputs > maxInputItems {
			return nil, fmt.Errorf("%w: section %d", vmerrors.ErrVTooManyInputs, i)
		}
		if t.Outputs > maxOutputItems && !t.NonReturning() {
			return nil, fmt.Errorf("%w: section %d", vmerrors.ErrVTooManyOutputs, i)
		}
		if t.MaxStackHeight > maxStackHeight {
			return nil, fmt.Errorf("%w: section %d", vmerrors.ErrVTooLargeMaxStackHeight, i)
		}
		c.Types[i] = t
		pos += typeEntry
	}
	if c.Types[0].Inputs != 0 || !c.Types[0].NonReturning() {
		return nil, vmerrors.ErrVInvalidFirstSection
	}

	c.CodeSections = make([][]byte, numCode)
	for i, size := range codeSizes {
		if pos+size > len(b) {
			return nil, fmt.Errorf("%w: code section %d", vmerrors.ErrVInvalidSectionBodySize, i)
		}
		c.CodeSections[i] = b[pos : pos+size]
		pos += size
	}

	c.SubContainers = make([]*Container, len(containerSizes))
	for i, size := range containerSizes {
		if pos+size > len(b) {
			return nil, fmt.Errorf("%w: container %d", vmerrors.ErrVInvalidSectionBodySize, i)
		}
		sub, err := parseContainer(b[pos:pos+size], true, depth+1)
		if err != nil {
			return nil, fmt.Errorf("container %d: %w", i, err)
		}
		c.SubContainers[i] = sub
		pos += size
	}

	end := pos + dataSize
	switch {
	case end > len(b) && !allowTruncatedData:
		return nil, fmt.Errorf("%w: want %d data bytes, have %d", vmerrors.ErrVTruncatedData, dataSize, len(b)-pos)
	case end > len(b):
		c.Data = b[pos:]
	case end < len(b):
		return nil, vmerrors.ErrVUnexpectedTrailingBytes
	default:
		c.Data = b[pos:end]
	}
	return c, nil
}

// Bytes returns the encoding the container was parsed from, or a fresh
// encoding for a container built in memory.
func (c *Container) Bytes() []byte {
	if c.raw != nil {
		return c.raw
	}
	return c.MarshalBinary()
}

// MarshalBinary encodes the container; DataSize is taken from len(Data).
func (c *Container) MarshalBinary() []byte {
	subs := make([][]byte, len(c.SubContainers))
	for i, sub := range c.SubContainers {
		subs[i] = sub.Bytes()
	}
	out := []byte{eofMagic0, eofMagic1, eofVersion}
	out = append(out, kindTypes)
	out = binary.BigEndian.AppendUint16(out, uint16(len(c.Types)*typeEntry))
	out = append(out, kindCode)
	out = binary.BigEndian.AppendUint16(out, uint16(len(c.CodeSections)))
	for _, code := range c.CodeSections {
		out = binary.BigEndian.AppendUint16(out, uint16(len(code)))
	}
	if len(subs) > 0 {
		out = append(out, kindContainer)
		out = binary.BigEndian.AppendUint16(out, uint16(len(subs)))
		for _, s := range subs {
			out = binary.BigEndian.AppendUint32(out, uint32(len(s)))
		}
	}
	out = append(out, kindData)
	out = binary.BigEndian.AppendUint16(out, uint16(len(c.Data)))
	out = append(out, terminator)
	for _, t := range c.Types {
		out = append(out, t.Inputs, t.Outputs)
		out = binary.BigEndian.AppendUint16(out, t.MaxStackHeight)
	}
	for _, code := range c.CodeSections {
		out = append(out, code...)
	}
	for _, s := range subs {
		out = append(out, s...)
	}
	return append(out, c.Data...)
}

// WithAuxData returns the deployable form of c with aux appended to its data
// section. The result must carry the full declared data size.
func (c *Container) WithAuxData(aux []byte) (*Container, error) {
	data := make([]byte, 0, len(c.Data)+len(aux))
	data = append(append(data, c.Data...), aux...)
	if len(data) < c.DataSize {
		return nil, fmt.Errorf("%w: %d of %d data bytes", vmerrors.ErrVTruncatedData, len(data), c.DataSize)
	}
	if len(data) > 0xffff {
		return nil, fmt.Errorf("%w: data section of %d bytes", vmerrors.ErrVInvalidSectionBodySize, len(data))
	}
	out := &Container{
		Types:         c.Types,
		CodeSections:  c.CodeSections,
		SubContainers: c.SubContainers,
		Data:          data,
		DataSize:      len(data),
	}
	out.raw = out.MarshalBinary()
	return out, nil
}
