package program

import (
	"testing"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryType = FunctionType{Inputs: 0, Outputs: nonReturning, MaxStackHeight: 4}

func container(codes [][]byte, types []FunctionType, subs []*Container, data []byte) []byte {
	if types == nil {
		types = []FunctionType{entryType}
	}
	return (&Container{Types: types, CodeSections: codes, SubContainers: subs, Data: data}).MarshalBinary()
}

func TestParseContainer(t *testing.T) {
	b := container([][]byte{{0x00}}, nil, nil, []byte{0xaa, 0xbb})
	c, err := ParseContainer(b, false)
	require.NoError(t, err)
	require.Len(t, c.CodeSections, 1)
	assert.Equal(t, []byte{0x00}, c.CodeSections[0])
	assert.Equal(t, []byte{0xaa, 0xbb}, c.Data)
	assert.Equal(t, 2, c.DataSize)
	assert.Equal(t, b, c.Bytes())
	assert.Equal(t, b, c.MarshalBinary())
}

func TestParseContainerStructuralErrors(t *testing.T) {
	good := container([][]byte{{0x00}}, nil, nil, []byte{1, 2, 3, 4})

	cases := []struct {
		name  string
		input []byte
		want  error
	}{
		{"magic", append([]byte{0xef, 0x01}, good[2:]...), vmerrors.ErrVInvalidMagic},
		{"version", append([]byte{0xef, 0x00, 0x02}, good[3:]...), vmerrors.ErrVInvalidVersion},
		{"short", []byte{0xef, 0x00, 0x01}, vmerrors.ErrVMissingTypeHeader},
		{"trailing", append(append([]byte{}, good...), 0x00), vmerrors.ErrVUnexpectedTrailingBytes},
		{"truncated data", good[:len(good)-2], vmerrors.ErrVTruncatedData},
		{"truncated code", good[:len(good)-5], vmerrors.ErrVInvalidSectionBodySize},
		{"first section returns", container([][]byte{{0x00}}, []FunctionType{{0, 0, 0}}, nil, nil), vmerrors.ErrVInvalidFirstSection},
		{"too many inputs", container([][]byte{{0x00}, {0xe4}}, []FunctionType{entryType, {128, 0, 0}}, nil, nil), vmerrors.ErrVTooManyInputs},
		{"stack height", container([][]byte{{0x00}}, []FunctionType{{0, nonReturning, 1024}}, nil, nil), vmerrors.ErrVTooLargeMaxStackHeight},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseContainer(c.input, false)
			require.ErrorIs(t, err, c.want)
			assert.True(t, vmerrors.IsValidation(err))
		})
	}

	// types size does not match the code section count
	bad := append([]byte{}, good...)
	bad[5] = 0x08
	_, err := ParseContainer(bad, false)
	require.ErrorIs(t, err, vmerrors.ErrVInvalidTypeSize)

	// a container still waiting for aux data parses when allowed
	c, err := ParseContainer(good[:len(good)-2], true)
	require.NoError(t, err)
	assert.Len(t, c.Data, 2)
	assert.Equal(t, 4, c.DataSize)

	full, err := c.WithAuxData([]byte{3, 4})
	require.NoError(t, err)
	assert.Equal(t, good, full.Bytes())
	_, err = c.WithAuxData(nil)
	require.ErrorIs(t, err, vmerrors.ErrVTruncatedData)
}

func TestValidateContainer(t *testing.T) {
	runtime := &Container{Types: []FunctionType{entryType}, CodeSections: [][]byte{{0x00}}}
	// PUSH0 PUSH0 RETURNCONTRACT 0
	initcode := &Container{
		Types:         []FunctionType{entryType},
		CodeSections:  [][]byte{{0x5f, 0x5f, 0xee, 0x00}},
		SubContainers: []*Container{runtime},
	}
	data32 := make([]byte, 32)

	cases := []struct {
		name  string
		codes [][]byte
		types []FunctionType
		subs  []*Container
		data  []byte
		kind  ContainerKind
		want  error
	}{
		{name: "stop", codes: [][]byte{{0x00}}},
		{name: "legacy jump", codes: [][]byte{{0x5f, 0x56, 0x00}}, want: vmerrors.ErrVUndefinedInstruction},
		{name: "selfdestruct", codes: [][]byte{{0x5f, 0xff}}, want: vmerrors.ErrVUndefinedInstruction},
		{name: "truncated push", codes: [][]byte{{0x00, 0x61, 0x01}}, want: vmerrors.ErrVTruncatedImmediate},
		{name: "no terminator", codes: [][]byte{{0x5f, 0x5f, 0x01}}, want: vmerrors.ErrVInvalidCodeTermination},
		{name: "rjump", codes: [][]byte{{0xe0, 0x00, 0x00, 0x00}}},
		{name: "rjump backwards", codes: [][]byte{{0x5b, 0xe0, 0xff, 0xfc}}},
		{name: "rjump into immediate", codes: [][]byte{{0xe0, 0x00, 0x01, 0x60, 0x01, 0x00}}, want: vmerrors.ErrVInvalidJumpDest},
		{name: "rjump out of section", codes: [][]byte{{0xe0, 0x00, 0x10}}, want: vmerrors.ErrVInvalidJumpDest},
		{name: "rjumpv", codes: [][]byte{{0x5f, 0xe2, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00}}},
		{
			name:  "callf",
			codes: [][]byte{{0xe3, 0x00, 0x01, 0x00}, {0xe4}},
			types: []FunctionType{entryType, {0, 0, 0}},
		},
		{
			name:  "callf out of range",
			codes: [][]byte{{0xe3, 0x00, 0x05, 0x00}},
			want:  vmerrors.ErrVInvalidSectionArgument,
		},
		{
			name:  "callf non-returning",
			codes: [][]byte{{0xe3, 0x00, 0x01, 0x00}, {0x00}},
			types: []FunctionType{entryType, entryType},
			want:  vmerrors.ErrVInvalidSectionArgument,
		},
		{
			name:  "retf in entry",
			codes: [][]byte{{0xe4}},
			want:  vmerrors.ErrVInvalidNonReturning,
		},
		{
			name:  "unreachable",
			codes: [][]byte{{0x00}, {0xe4}},
			types: []FunctionType{entryType, {0, 0, 0}},
			want:  vmerrors.ErrVUnreachableCode,
		},
		{name: "dataloadn", codes: [][]byte{{0xd1, 0x00, 0x00, 0x50, 0x00}}, data: data32},
		{name: "dataloadn past data", codes: [][]byte{{0xd1, 0x00, 0x01, 0x50, 0x00}}, data: data32, want: vmerrors.ErrVInvalidDataloadnArg},
		{name: "initcode", codes: initcode.CodeSections, subs: initcode.SubContainers, kind: KindInitcode},
		{name: "returncontract in runtime", codes: initcode.CodeSections, subs: initcode.SubContainers, want: vmerrors.ErrVIncompatibleContainer},
		{name: "stop in initcode", codes: [][]byte{{0x00}}, kind: KindInitcode, want: vmerrors.ErrVIncompatibleContainer},
		{
			name:  "eofcreate",
			codes: [][]byte{{0x5f, 0x5f, 0x5f, 0x5f, 0xec, 0x00, 0x50, 0x00}},
			subs:  []*Container{initcode},
		},
		{
			name:  "eofcreate index",
			codes: [][]byte{{0x5f, 0x5f, 0x5f, 0x5f, 0xec, 0x01, 0x50, 0x00}},
			subs:  []*Container{initcode},
			want:  vmerrors.ErrVInvalidContainerArg,
		},
		{name: "unreferenced", codes: [][]byte{{0x00}}, subs: []*Container{runtime}, want: vmerrors.ErrVUnreferencedContainer},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			raw := container(c.codes, c.types, c.subs, c.data)
			_, err := New(raw, common.Hash{}, true, c.kind)
			if c.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, c.want)
		})
	}
}

func TestNewLegacyWhenContainersDisabled(t *testing.T) {
	raw := container([][]byte{{0x00}}, nil, nil, nil)
	p, err := New(raw, common.Hash{}, false, KindRuntime)
	require.NoError(t, err)
	assert.False(t, p.IsEOF())

	p, err = New(raw, common.Hash{}, true, KindRuntime)
	require.NoError(t, err)
	assert.True(t, p.IsEOF())
	assert.Equal(t, len(raw), p.Len())
}
