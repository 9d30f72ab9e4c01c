// Package vm executes Ethereum bytecode, legacy and EOF, against a Host.
//
// One EVM runs one transaction at a time. Nested calls do not recurse on the
// Go stack: a CALL or CREATE suspends its frame, the EVM pushes the child
// onto an explicit frame stack and resumes the parent once the child ends.
package vm

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/evm/common"
	log "github.com/colorfulnotion/evm/log"
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/vm/precompiles"
	"github.com/colorfulnotion/evm/vm/program"
	"github.com/colorfulnotion/evm/vmerrors"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Message is a top-level execution request.
type Message struct {
	// Kind is KindCall, KindStaticCall, KindCreate or KindCreate2.
	Kind   CallKind
	Caller common.Address
	To     common.Address // ignored for creates
	Value  *uint256.Int
	// Input is calldata, or the init code of a create.
	Input      []byte
	Gas        uint64
	Salt       *uint256.Int // KindCreate2
	AccessList types.AccessList
	// Code, when set, runs in place of the code stored at To.
	Code []byte
}

// EVM drives frames for one transaction against a Host.
type EVM struct {
	Block BlockContext
	Tx    TxContext

	host        Host
	rules       *rules.RuleSet
	gas         *rules.GasSchedule
	cfg         Config
	inspector   Inspector
	precompiles *precompiles.Registry
	tables      *tablePair
	programs    map[common.Hash]*program.Program

	journal *Journal
	sub     *Substate
	frames  []*Frame

	ctx     context.Context
	steps   uint64
	step    StepContext
	logging bool

	// callGasTemp holds the gas available for the current call. This is needed because the
	// available gas is calculated in gasCall* according to the 63/64 rule and later
	// applied in opCall*.
	callGasTemp uint64
	hasher      crypto.KeccakState
	hasherBuf   common.Hash
}

// New returns an EVM for rs; a nil rs selects the latest rule set.
func New(host Host, rs *rules.RuleSet, cfg Config, block BlockContext, tx TxContext) *EVM {
	if rs == nil {
		rs = rules.Latest()
	}
	evm := &EVM{
		Block:       block,
		Tx:          tx,
		host:        host,
		rules:       rs,
		gas:         &rs.Gas,
		cfg:         cfg,
		inspector:   cfg.Inspector,
		precompiles: precompiles.ForRules(rs),
		tables:      instructionSets(rs),
		programs:    make(map[common.Hash]*program.Program),
		ctx:         context.Background(),
		logging:     log.IsModuleEnabled(log.Interp),
		hasher:      crypto.NewKeccakState(),
	}
	if len(cfg.ExtraEips) > 0 {
		legacy := copyJumpTable(evm.tables.legacy)
		for _, eip := range cfg.ExtraEips {
			if !EnableEIP(eip, legacy) {
				log.Warn(log.Frame, evm.str("unknown eip ignored"), "eip", eip)
			}
		}
		evm.tables = &tablePair{legacy: legacy, eof: evm.tables.eof}
	}
	evm.Reset()
	return evm
}

// Reset drops the transaction substate and journal, keeping the host.
func (evm *EVM) Reset() {
	evm.sub = newSubstate()
	evm.journal = newJournal(evm.host, evm.sub)
	evm.frames = evm.frames[:0]
	evm.steps = 0
}

func (evm *EVM) Rules() *rules.RuleSet              { return evm.rules }
func (evm *EVM) Host() Host                         { return evm.host }
func (evm *EVM) Journal() *Journal                  { return evm.journal }
func (evm *EVM) Substate() *Substate                { return evm.sub }
func (evm *EVM) Precompiles() *precompiles.Registry { return evm.precompiles }
func (evm *EVM) Steps() uint64                      { return evm.steps }

func (evm *EVM) str(msg string) string {
	return fmt.Sprintf("[%s] %s", evm.rules.Name, msg)
}

func (evm *EVM) blockNumber() uint64 {
	if evm.Block.BlockNumber == nil {
		return 0
	}
	return evm.Block.BlockNumber.Uint64()
}

func (evm *EVM) memoryLimit() uint64 {
	if evm.cfg.MemoryLimit != 0 {
		return evm.cfg.MemoryLimit
	}
	return evm.rules.MemoryLimit
}

// Execute runs msg to completion and returns its outcome. State changes stay
// in the host and the journal until Finalize.
func (evm *EVM) Execute(ctx context.Context, msg *Message) *Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	evm.ctx = ctx
	evm.steps = 0
	if err := ctx.Err(); err != nil {
		return &Outcome{Status: Errored, Err: fmt.Errorf("%w: %v", vmerrors.ErrXExecutionAborted, err), GasUsed: msg.Gas}
	}
	evm.prepare(msg)

	req, err := evm.rootRequest(msg)
	if err != nil {
		return &Outcome{Status: Errored, Err: err, GasUsed: msg.Gas}
	}
	root, res := evm.spawn(-1, req)
	if root != nil {
		res = evm.drive(root)
	}
	return evm.outcome(msg, req, res)
}

// prepare warms what EIP-2929 and EIP-3651 make warm from the start.
func (evm *EVM) prepare(msg *Message) {
	if !evm.rules.IsBerlin() {
		return
	}
	evm.journal.WarmAccount(msg.Caller)
	if !msg.Kind.IsCreate() {
		evm.journal.WarmAccount(msg.To)
	}
	for _, addr := range evm.precompiles.Addresses() {
		evm.journal.WarmAccount(addr)
	}
	if evm.rules.IsShanghai() {
		evm.journal.WarmAccount(evm.Block.Coinbase)
	}
	for _, el := range msg.AccessList {
		evm.journal.WarmAccount(el.Address)
		for _, key := range el.StorageKeys {
			evm.journal.WarmSlot(el.Address, key)
		}
	}
}

func (evm *EVM) rootRequest(msg *Message) (*callRequest, error) {
	value := msg.Value
	if value == nil {
		value = new(uint256.Int)
	}
	req := &callRequest{
		kind:        msg.Kind,
		caller:      msg.Caller,
		address:     msg.To,
		codeAddress: msg.To,
		value:       value,
		transfer:    true,
		input:       msg.Input,
		gas:         msg.Gas,
	}
	switch msg.Kind {
	case KindCreate, KindCreate2:
		req.initcode, req.input, req.salt = msg.Input, nil, msg.Salt
		if req.salt == nil {
			req.salt = new(uint256.Int)
		}
		if evm.rules.IsEOF() && program.HasEOFPrefix(msg.Input) {
			c, err := program.ParseContainer(msg.Input, false)
			if err != nil {
				return nil, err
			}
			if err := program.ValidateContainer(c, program.KindInitcode); err != nil {
				return nil, err
			}
			req.container = c
		}
		return req, nil
	case KindStaticCall:
		req.static, req.transfer = true, false
	default:
		req.kind = KindCall
	}
	if msg.Code != nil {
		prog, err := program.New(msg.Code, common.Hash{}, evm.rules.IsEOF(), program.KindRuntime)
		if err != nil {
			return nil, err
		}
		req.prog = prog
	}
	return req, nil
}

// drive runs the frame stack rooted at root until it empties.
func (evm *EVM) drive(root *Frame) *callResult {
	evm.frames = append(evm.frames[:0], root)
	for {
		f := evm.frames[len(evm.frames)-1]
		if err := evm.run(f); err == errSuspend {
			req := f.pending
			f.pending = nil
			child, res := evm.spawn(f.depth, req)
			if child != nil {
				evm.frames = append(evm.frames, child)
				continue
			}
			f.absorb(req, res)
			continue
		}
		res := evm.finish(f)
		evm.frames = evm.frames[:len(evm.frames)-1]
		if len(evm.frames) == 0 {
			return res
		}
		parent := evm.frames[len(evm.frames)-1]
		if res.status == Halted {
			parent.Gas.AddRefunds(res.refund)
		}
		parent.absorb(f.request, res)
	}
}

func failed(req *callRequest, err error) *callResult {
	return &callResult{status: Errored, err: err, gasLeft: req.gas}
}

// spawn starts the child req asks for. It returns the child frame to run, or
// the result directly when no frame is needed: precompiles, accounts without
// code and requests rejected before a checkpoint was opened.
func (evm *EVM) spawn(parentDepth int, req *callRequest) (*Frame, *callResult) {
	depth := parentDepth + 1
	if req.kind.IsCreate() {
		evm.createAddress(req)
	}
	ev := evm.frameEvent(depth, req)
	if evm.inspector != nil {
		evm.inspector.OnFrameEnter(ev)
	}
	var (
		f   *Frame
		res *callResult
	)
	switch {
	case depth > evm.rules.MaxCallDepth:
		res = failed(req, vmerrors.ErrCDepthExceeded)
	case req.kind.IsCreate():
		f, res = evm.spawnCreate(depth, req)
	default:
		f, res = evm.spawnCall(depth, req)
	}
	if f != nil {
		f.event = ev
		log.Debug(log.Frame, evm.str("enter"), "kind", req.kind, "depth", depth, "to", ev.To, "gas", req.gas)
		return f, nil
	}
	if evm.inspector != nil {
		evm.inspector.OnFrameExit(ev, &FrameResult{Status: res.status, Output: res.output, GasUsed: req.gas - res.gasLeft, Err: res.err})
	}
	return nil, res
}

func (evm *EVM) frameEvent(depth int, req *callRequest) *FrameEvent {
	ev := &FrameEvent{Kind: req.kind, Depth: depth, From: req.caller, To: req.address, Gas: req.gas, Value: req.value}
	if req.kind.IsCreate() {
		ev.To, ev.Input = req.created, req.initcode
	} else {
		ev.Input = req.input
	}
	return ev
}

func (evm *EVM) createAddress(req *callRequest) {
	switch {
	case req.kind == KindCreate:
		req.created = crypto.CreateAddress(req.caller, evm.host.GetNonce(req.caller))
	case req.container != nil:
		req.created = crypto.CreateAddress2(req.caller, req.salt.Bytes32(), crypto.Keccak256(req.container.Bytes()))
	default:
		req.created = crypto.CreateAddress2(req.caller, req.salt.Bytes32(), crypto.Keccak256(req.initcode))
	}
}

func (evm *EVM) canTransfer(req *callRequest) bool {
	return !req.transfer || req.value.IsZero() || !evm.host.GetBalance(req.caller).Lt(req.value)
}

// transfer moves the request's value, touching both ends even for zero.
func (evm *EVM) transfer(from, to common.Address, value *uint256.Int) {
	evm.journal.SetBalance(from, new(uint256.Int).Sub(evm.host.GetBalance(from), value))
	evm.journal.SetBalance(to, new(uint256.Int).Add(evm.host.GetBalance(to), value))
}

func (evm *EVM) spawnCall(depth int, req *callRequest) (*Frame, *callResult) {
	if !evm.canTransfer(req) {
		return nil, failed(req, vmerrors.ErrCInsufficientBalance)
	}
	cp := evm.journal.Checkpoint()
	contract, isPrecompile := evm.precompiles.Get(req.codeAddress)

	if (req.kind == KindCall || req.kind == KindExtCall) && !evm.host.Exist(req.address) {
		if !isPrecompile && evm.rules.IsEIP158() && req.value.IsZero() {
			// Calling a non-existing account, don't do anything.
			evm.journal.Commit(cp)
			return nil, &callResult{status: Halted, gasLeft: req.gas}
		}
		evm.journal.CreateAccount(req.address, false)
	}
	switch {
	case req.transfer:
		evm.transfer(req.caller, req.address, req.value)
	case req.kind == KindStaticCall || req.kind == KindExtStaticCall:
		evm.journal.Touch(req.address)
	}

	if isPrecompile {
		out, left, err := precompiles.Run(contract, req.input, req.gas)
		if err != nil {
			evm.journal.Rewind(cp)
			return nil, &callResult{status: Errored, err: err, gasLeft: evm.forfeit(err, left)}
		}
		evm.journal.Commit(cp)
		return nil, &callResult{status: Halted, output: out, gasLeft: left}
	}

	prog := req.prog
	if prog == nil {
		code := evm.host.GetCode(req.codeAddress)
		if len(code) == 0 {
			evm.journal.Commit(cp)
			return nil, &callResult{status: Halted, gasLeft: req.gas}
		}
		var err error
		if prog, err = evm.loadProgram(code, evm.host.GetCodeHash(req.codeAddress)); err != nil {
			evm.journal.Rewind(cp)
			return nil, &callResult{status: Errored, err: err, gasLeft: evm.forfeit(err, req.gas)}
		}
	}
	return evm.newFrame(depth, req, req.address, prog, cp), nil
}

func (evm *EVM) spawnCreate(depth int, req *callRequest) (*Frame, *callResult) {
	if !evm.canTransfer(req) {
		return nil, failed(req, vmerrors.ErrCInsufficientBalance)
	}
	nonce := evm.host.GetNonce(req.caller)
	if nonce+1 < nonce {
		return nil, failed(req, vmerrors.ErrCNonceOverflow)
	}
	evm.journal.SetNonce(req.caller, nonce+1)

	address := req.created
	// We add this to the access list _before_ taking a snapshot. Even if the
	// creation fails, the access-list change should not be rolled back.
	if evm.rules.IsBerlin() {
		evm.journal.WarmAccount(address)
	}
	// Ensure there's no existing contract already at the designated address.
	contractHash := evm.host.GetCodeHash(address)
	if evm.host.GetNonce(address) != 0 ||
		(contractHash != (common.Hash{}) && contractHash != types.EmptyCodeHash) ||
		evm.host.HasStorage(address) {
		err := vmerrors.ErrCContractCollision
		return nil, &callResult{status: Errored, err: err, gasLeft: evm.forfeit(err, req.gas)}
	}

	cp := evm.journal.Checkpoint()
	evm.journal.CreateAccount(address, true)
	if evm.rules.IsEIP158() {
		evm.journal.SetNonce(address, 1)
	}
	evm.transfer(req.caller, address, req.value)

	var prog *program.Program
	if req.container != nil {
		prog = program.FromContainer(req.container)
	} else {
		prog = program.NewLegacy(req.initcode, common.Hash{})
	}
	return evm.newFrame(depth, req, address, prog, cp), nil
}

// loadProgram returns the analysed unit of deployed code, analysing each code
// hash once per EVM.
func (evm *EVM) loadProgram(code []byte, hash common.Hash) (*program.Program, error) {
	if p, ok := evm.programs[hash]; ok && hash != (common.Hash{}) {
		return p, nil
	}
	p, err := program.New(code, hash, evm.rules.IsEOF(), program.KindRuntime)
	if err != nil {
		return nil, err
	}
	evm.programs[p.Hash] = p
	return p, nil
}

func (evm *EVM) newFrame(depth int, req *callRequest, address common.Address, prog *program.Program, cp int) *Frame {
	f := &Frame{
		kind:        req.kind,
		caller:      req.caller,
		address:     address,
		codeAddress: req.codeAddress,
		value:       req.value,
		input:       req.input,
		prog:        prog,
		static:      req.static,
		depth:       depth,
		stack:       newstack(),
		memory:      NewMemory(evm.gas, evm.memoryLimit()),
		Gas:         NewGasMeter(req.gas),
		checkpoint:  cp,
		request:     req,
	}
	if req.kind.IsCreate() {
		f.codeAddress = address
	}
	if prog.IsEOF() {
		f.table = evm.tables.eof
		f.enterSection(0)
	} else {
		f.table = evm.tables.legacy
		f.code = prog.Code
	}
	return f
}

// forfeit is the gas a frame failing with err keeps under the rule set.
func (evm *EVM) forfeit(err error, left uint64) uint64 {
	if evm.rules.ForfeitGasOnError && vmerrors.ConsumesAllGas(err) {
		return 0
	}
	return left
}

// finish settles an ended frame: deploys created code, commits or rewinds
// its checkpoint and returns what the parent receives.
func (evm *EVM) finish(f *Frame) *callResult {
	if f.kind.IsCreate() && f.state == Halted {
		evm.deployCode(f)
	}
	res := &callResult{status: f.state, output: f.output, err: f.err}
	switch f.state {
	case Halted:
		evm.journal.Commit(f.checkpoint)
		res.gasLeft = f.Gas.Remaining()
		res.refund = f.Gas.Refunded()
		if f.kind.IsCreate() {
			res.address = f.address
		}
	case Reverted:
		evm.journal.Rewind(f.checkpoint)
		res.gasLeft = f.Gas.Remaining()
	default:
		evm.journal.Rewind(f.checkpoint)
		res.gasLeft = evm.forfeit(f.err, f.Gas.Remaining())
	}
	log.Debug(log.Frame, evm.str("exit"), "kind", f.kind, "depth", f.depth, "state", f.state, "gasUsed", f.Gas.Limit()-res.gasLeft, "err", f.err)
	if evm.inspector != nil {
		evm.inspector.OnFrameExit(f.event, &FrameResult{Status: res.status, Output: res.output, GasUsed: f.Gas.Limit() - res.gasLeft, Err: res.err})
	}
	f.release()
	return res
}

// deployCode stores the code a successful create returned, or turns the
// frame into a failure when the code may not be deployed.
func (evm *EVM) deployCode(f *Frame) {
	var (
		ret = f.output
		err error
	)
	// Check whether the max code size has been exceeded, assign err if the case.
	if limit := evm.rules.MaxCodeSize; limit > 0 && len(ret) > limit {
		err = fmt.Errorf("%w: %d bytes", vmerrors.ErrCMaxCodeSize, len(ret))
	}
	// Reject code starting with 0xEF if EIP-3541 is enabled.
	if err == nil && !f.prog.IsEOF() && evm.rules.IsLondon() && len(ret) >= 1 && ret[0] == 0xEF {
		err = vmerrors.ErrCInvalidCodePrefix
	}
	// if the contract creation ran successfully and no errors were returned
	// calculate the gas required to store the code. If the code could not
	// be stored due to not enough gas set an error and let it be handled
	// by the error checking condition below.
	if err == nil {
		createDataGas := uint64(len(ret)) * evm.gas.CreateData
		if f.Gas.Charge(createDataGas) == nil {
			evm.journal.SetCode(f.address, ret)
		} else {
			err = vmerrors.ErrGCodeStoreOutOfGas
		}
	}
	// Frontier leaves a contract without code when the deposit is unaffordable.
	if err != nil && (evm.rules.IsHomestead() || err != vmerrors.ErrGCodeStoreOutOfGas) {
		f.state, f.output, f.err = Errored, nil, err
	}
}

func (evm *EVM) outcome(msg *Message, req *callRequest, res *callResult) *Outcome {
	o := &Outcome{Status: res.status, Output: res.output, Err: res.err, GasUsed: msg.Gas - res.gasLeft}
	switch res.status {
	case Halted:
		refund := uint64(max(res.refund, 0))
		o.GasRefunded = min(refund, evm.rules.MaxRefund(o.GasUsed))
		if req.kind.IsCreate() {
			o.ContractAddress = res.address
		}
		o.Logs = append([]*types.Log(nil), evm.sub.Logs()...)
	case Reverted:
		o.Err = vmerrors.ErrCRevert
	case Errored:
		o.Output = nil
	}
	log.Debug(log.Frame, evm.str("outcome"), "status", o.Status, "gasUsed", o.GasUsed, "refund", o.GasRefunded, "steps", evm.steps)
	return o
}

// Finalize applies the end-of-transaction rules to the host: self-destructed
// accounts are deleted and, from Spurious Dragon, so are touched accounts
// left empty (EIP-161). The journal and substate are then reset.
func (evm *EVM) Finalize() {
	for addr := range evm.sub.selfDestructs {
		evm.host.DeleteAccount(addr)
	}
	if evm.rules.IsEIP158() {
		for addr := range evm.sub.touched {
			if evm.host.Exist(addr) && evm.host.Empty(addr) {
				evm.host.DeleteAccount(addr)
			}
		}
	}
	evm.Reset()
}
