package program

// Byte values the analysis needs. The full opcode set lives in package vm.
const (
	opStop           = 0x00
	opJump           = 0x56
	opJumpi          = 0x57
	opJumpdest       = 0x5b
	opPush1          = 0x60
	opPush32         = 0x7f
	opDataloadn      = 0xd1
	opRjump          = 0xe0
	opRjumpi         = 0xe1
	opRjumpv         = 0xe2
	opCallf          = 0xe3
	opRetf           = 0xe4
	opJumpf          = 0xe5
	opDupn           = 0xe6
	opSwapn          = 0xe7
	opExchange       = 0xe8
	opEofcreate      = 0xec
	opReturncontract = 0xee
	opReturn         = 0xf3
	opRevert         = 0xfd
	opInvalid        = 0xfe
	opSelfdestruct   = 0xff
)

type eofOp struct {
	valid       bool
	immediate   int // fixed immediate size; RJUMPV is sized from its first immediate byte
	terminating bool
}

var eofOps = buildEOFOps()

// legacy opcodes that survive into container code
var eofLegacyRanges = [][2]int{
	{0x00, 0x0b}, // STOP..SIGNEXTEND
	{0x10, 0x1d}, // LT..SAR
	{0x20, 0x20}, // KECCAK256
	{0x30, 0x37}, // ADDRESS..CALLDATACOPY
	{0x3a, 0x3a}, // GASPRICE
	{0x3d, 0x3e}, // RETURNDATASIZE, RETURNDATACOPY
	{0x40, 0x4a}, // BLOCKHASH..BLOBBASEFEE
	{0x50, 0x55}, // POP..SSTORE
	{0x59, 0x59}, // MSIZE
	{0x5b, 0x5f}, // NOP..PUSH0
	{0x60, 0x7f}, // PUSH1..PUSH32
	{0x80, 0x9f}, // DUP, SWAP
	{0xa0, 0xa4}, // LOG0..LOG4
	{0xf3, 0xf3}, // RETURN
	{0xfd, 0xfe}, // REVERT, INVALID
}

func buildEOFOps() [256]eofOp {
	var t [256]eofOp
	for _, r := range eofLegacyRanges {
		for op := r[0]; op <= r[1]; op++ {
			t[op].valid = true
		}
	}
	for op := opPush1; op <= opPush32; op++ {
		t[op].immediate = op - opPush1 + 1
	}
	for _, op := range []int{0xd0, 0xd2, 0xd3, 0xf7, 0xf8, 0xf9, 0xfb} {
		// DATALOAD, DATASIZE, DATACOPY, RETURNDATALOAD, EXTCALL, EXTDELEGATECALL, EXTSTATICCALL
		t[op].valid = true
	}
	withImm := map[int]int{
		opDataloadn: 2, opRjump: 2, opRjumpi: 2, opRjumpv: 1, opCallf: 2, opRetf: 0, opJumpf: 2,
		opDupn: 1, opSwapn: 1, opExchange: 1, opEofcreate: 1, opReturncontract: 1,
	}
	for op, n := range withImm {
		t[op].valid = true
		t[op].immediate = n
	}
	for _, op := range []int{opStop, opReturn, opRevert, opInvalid, opRetf, opJumpf, opRjump, opReturncontract} {
		t[op].terminating = true
	}
	return t
}
