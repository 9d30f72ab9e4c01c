package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/log"
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/state"
	"github.com/colorfulnotion/evm/vm"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

// defaultReceiver holds the code of a run that is not a create.
const defaultReceiver = "0x00000000000000000000000000000000000c0de0"

// envFlags are the block, transaction and engine settings shared by run and
// console.
type envFlags struct {
	fork      string
	sender    string
	gas       uint64
	gasPrice  uint64
	number    uint64
	timestamp uint64
	coinbase  string
	chainID   uint64
	baseFee   uint64
	stepLimit uint64
	memLimit  uint64
	timeout   time.Duration
	eips      []int
	dbPath    string
	prestate  string
}

func (e *envFlags) register(cmd *cobra.Command) {
	dev, _ := common.GetEVMDevAccount(0)
	f := cmd.Flags()
	f.StringVar(&e.fork, "fork", "cancun", "rule set: a fork name or a rule set JSON file")
	f.StringVar(&e.sender, "sender", dev.Hex(), "transaction sender")
	f.Uint64Var(&e.gas, "gas", 10_000_000, "gas limit of the message")
	f.Uint64Var(&e.gasPrice, "gasprice", 1, "GASPRICE")
	f.Uint64Var(&e.number, "number", 1, "block number")
	f.Uint64Var(&e.timestamp, "timestamp", 1, "block timestamp")
	f.StringVar(&e.coinbase, "coinbase", "0x0000000000000000000000000000000000000c0b", "block coinbase")
	f.Uint64Var(&e.chainID, "chainid", 1, "CHAINID")
	f.Uint64Var(&e.baseFee, "basefee", 7, "BASEFEE")
	f.Uint64Var(&e.stepLimit, "steplimit", 0, "abort after this many instructions (0: no limit)")
	f.Uint64Var(&e.memLimit, "memlimit", 0, "per-frame memory ceiling in bytes (0: rule set default)")
	f.DurationVar(&e.timeout, "timeout", 0, "wall-clock limit (0: none)")
	f.IntSliceVar(&e.eips, "eip", nil, "extra opcode EIPs to enable")
	f.StringVar(&e.dbPath, "db", "", "leveldb state directory (default: in memory)")
	f.StringVar(&e.prestate, "prestate", "", "JSON alloc loaded before execution")
}

func (e *envFlags) ruleSet() (*rules.RuleSet, error) {
	return rules.ReadRuleSet(e.fork)
}

// openState opens the store and a cache over it, with the prestate loaded.
func (e *envFlags) openState(rs *rules.RuleSet) (*state.Store, *state.Cache, error) {
	store, err := state.OpenStore(e.dbPath)
	if err != nil {
		return nil, nil, err
	}
	cache := state.NewCache(store, rs.IsEIP158())
	if e.prestate != "" {
		alloc, err := state.ReadAlloc(e.prestate)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		cache.InsertAlloc(alloc)
		log.Info(log.CLI, "prestate loaded", "accounts", len(alloc))
	}
	return store, cache, nil
}

func (e *envFlags) block() vm.BlockContext {
	random := common.BigToHash(new(big.Int).SetUint64(e.number))
	return vm.BlockContext{
		Coinbase:    common.HexToAddress(e.coinbase),
		GasLimit:    30_000_000,
		BlockNumber: new(big.Int).SetUint64(e.number),
		Time:        e.timestamp,
		Difficulty:  new(big.Int),
		Random:      &random,
		BaseFee:     new(big.Int).SetUint64(e.baseFee),
		BlobBaseFee: big.NewInt(1),
		ChainID:     new(big.Int).SetUint64(e.chainID),
	}
}

func (e *envFlags) tx() vm.TxContext {
	return vm.TxContext{Origin: common.HexToAddress(e.sender), GasPrice: new(big.Int).SetUint64(e.gasPrice)}
}

func (e *envFlags) config(in vm.Inspector) vm.Config {
	return vm.Config{Inspector: in, StepLimit: e.stepLimit, MemoryLimit: e.memLimit, ExtraEips: e.eips}
}

func (e *envFlags) context() (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(context.Background(), e.timeout)
	}
	return context.WithCancel(context.Background())
}

// parseHex accepts hex with or without 0x, or @file to read hex from a file.
func parseHex(s string) ([]byte, error) {
	if strings.HasPrefix(s, "@") {
		data, err := os.ReadFile(s[1:])
		if err != nil {
			return nil, err
		}
		s = string(data)
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	if s == "0x" {
		return nil, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("bad hex %q: %w", truncate(s, 16), err)
	}
	return b, nil
}

func parseValue(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	if strings.HasPrefix(s, "0x") {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type outcomeJSON struct {
	Status          string          `json:"status"`
	GasUsed         uint64          `json:"gasUsed"`
	GasRefunded     uint64          `json:"gasRefunded"`
	Output          hexutil.Bytes   `json:"output"`
	Error           string          `json:"error,omitempty"`
	ContractAddress *common.Address `json:"contractAddress,omitempty"`
	Logs            int             `json:"logs"`
	Steps           uint64          `json:"steps"`
}

func printOutcome(w io.Writer, evm *vm.EVM, o *vm.Outcome) error {
	out := outcomeJSON{
		Status:      o.Status.String(),
		GasUsed:     o.GasUsed,
		GasRefunded: o.GasRefunded,
		Output:      o.Output,
		Logs:        len(o.Logs),
		Steps:       evm.Steps(),
	}
	if o.Err != nil && o.Status == vm.Errored {
		out.Error = o.Err.Error()
	}
	if o.ContractAddress != (common.Address{}) {
		out.ContractAddress = &o.ContractAddress
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	color := common.ColorGreen
	switch o.Status {
	case vm.Reverted:
		color = common.ColorYellow
	case vm.Errored:
		color = common.ColorRed
	}
	_, err = fmt.Fprintln(w, common.Colorize(color, string(data), noColor))
	return err
}
