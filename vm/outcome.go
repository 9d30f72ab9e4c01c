package vm

import (
	"fmt"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/ethereum/go-ethereum/core/types"
)

// Status is the state of a frame. Running is the only non-terminal state.
type Status uint8

const (
	Running Status = iota
	Halted
	Reverted
	Errored
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Reverted:
		return "reverted"
	case Errored:
		return "errored"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// CallKind is how a frame was entered.
type CallKind uint8

const (
	KindCall CallKind = iota
	KindStaticCall
	KindDelegateCall
	KindCallCode
	KindCreate
	KindCreate2
	KindExtCall
	KindExtStaticCall
	KindExtDelegateCall
	KindEOFCreate
)

var callKindNames = [...]string{
	KindCall:            "CALL",
	KindStaticCall:      "STATICCALL",
	KindDelegateCall:    "DELEGATECALL",
	KindCallCode:        "CALLCODE",
	KindCreate:          "CREATE",
	KindCreate2:         "CREATE2",
	KindExtCall:         "EXTCALL",
	KindExtStaticCall:   "EXTSTATICCALL",
	KindExtDelegateCall: "EXTDELEGATECALL",
	KindEOFCreate:       "EOFCREATE",
}

func (k CallKind) String() string {
	if int(k) < len(callKindNames) {
		return callKindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

var callKindOps = [...]OpCode{
	KindCall:            CALL,
	KindStaticCall:      STATICCALL,
	KindDelegateCall:    DELEGATECALL,
	KindCallCode:        CALLCODE,
	KindCreate:          CREATE,
	KindCreate2:         CREATE2,
	KindExtCall:         EXTCALL,
	KindExtStaticCall:   EXTSTATICCALL,
	KindExtDelegateCall: EXTDELEGATECALL,
	KindEOFCreate:       EOFCREATE,
}

// Opcode is the instruction that opens a frame of kind k.
func (k CallKind) Opcode() OpCode { return callKindOps[k] }

// IsCreate reports the create family.
func (k CallKind) IsCreate() bool {
	return k == KindCreate || k == KindCreate2 || k == KindEOFCreate
}

// IsExt reports the container call family, which returns 0/1/2 status codes.
func (k CallKind) IsExt() bool {
	return k == KindExtCall || k == KindExtStaticCall || k == KindExtDelegateCall
}

// Outcome is the result of one top-level execution.
type Outcome struct {
	Status Status
	// Output is the returned or reverted data; empty on error.
	Output []byte
	// GasUsed is the gas consumed before refunds.
	GasUsed uint64
	// GasRefunded is the refund after the rule set's cap; zero unless Halted.
	GasRefunded uint64
	// Err is the error kind when Status is Errored, ErrCRevert when Reverted.
	Err             error
	ContractAddress common.Address
	Logs            []*types.Log
}

func (o *Outcome) Success() bool { return o.Status == Halted }

func (o *Outcome) String() string {
	if o.Err != nil && o.Status == Errored {
		return fmt.Sprintf("%s(%s) gasUsed=%d", o.Status, vmerrors.GetErrorName(o.Err), o.GasUsed)
	}
	return fmt.Sprintf("%s gasUsed=%d refund=%d output=%s", o.Status, o.GasUsed, o.GasRefunded, common.Bytes2Hex(o.Output))
}
