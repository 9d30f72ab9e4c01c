package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/log"
	"github.com/colorfulnotion/evm/state"
	"github.com/colorfulnotion/evm/tracers"
	"github.com/colorfulnotion/evm/vm"
	"github.com/ethereum/go-ethereum/eth/tracers/logger"
	"github.com/spf13/cobra"
)

type runFlags struct {
	envFlags
	code    string
	input   string
	value   string
	to      string
	create  bool
	commit  bool
	dump    bool
	diff    bool
	tree    bool
	jsonLog bool
	script  string
	profile string
	otlp    string
}

func newRunCmd() *cobra.Command {
	var rf runFlags
	cmd := &cobra.Command{
		Use:   "run [code]",
		Short: "Execute bytecode (hex, or @file) as a call or a create",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				rf.code = args[0]
			}
			return rf.run(cmd)
		},
	}
	rf.register(cmd)
	f := cmd.Flags()
	f.StringVar(&rf.code, "code", "", "code to run (hex or @file); installed at --to unless --create")
	f.StringVar(&rf.input, "input", "", "call data (hex or @file)")
	f.StringVar(&rf.value, "value", "", "call value (decimal or 0x hex)")
	f.StringVar(&rf.to, "to", defaultReceiver, "receiver address")
	f.BoolVar(&rf.create, "create", false, "treat the code as initcode")
	f.BoolVar(&rf.commit, "commit", false, "write the post state to --db")
	f.BoolVar(&rf.dump, "dump", false, "print the post state")
	f.BoolVar(&rf.diff, "diff", false, "print a diff of the prestate against the post state")
	f.BoolVar(&rf.tree, "tree", false, "print the call tree")
	f.BoolVar(&rf.jsonLog, "json", false, "per-instruction JSON trace to stderr")
	f.StringVar(&rf.script, "js", "", "JavaScript inspector file")
	f.StringVar(&rf.profile, "profile", "", "write an HTML gas profile to this file")
	f.StringVar(&rf.otlp, "otlp", "", "export frame spans to this OTLP/HTTP endpoint (host:port)")
	return cmd
}

func (rf *runFlags) run(cmd *cobra.Command) error {
	rs, err := rf.ruleSet()
	if err != nil {
		return err
	}
	code, err := parseHex(rf.code)
	if err != nil {
		return err
	}
	input, err := parseHex(rf.input)
	if err != nil {
		return err
	}
	value, err := parseValue(rf.value)
	if err != nil {
		return fmt.Errorf("bad value: %w", err)
	}
	store, cache, err := rf.openState(rs)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := rf.context()
	defer cancel()

	var (
		inspectors tracers.Multi
		tree       *tracers.CallTree
		js         *tracers.JSInspector
		profile    *tracers.GasProfile
	)
	if rf.tree {
		tree = tracers.NewCallTree()
		inspectors = append(inspectors, tree)
	}
	if rf.jsonLog {
		inspectors = append(inspectors, tracers.NewHooks(logger.NewJSONLogger(&logger.Config{EnableMemory: true}, os.Stderr)))
	}
	if rf.script != "" {
		src, err := os.ReadFile(rf.script)
		if err != nil {
			return err
		}
		if js, err = tracers.NewJSInspector(string(src)); err != nil {
			return err
		}
		inspectors = append(inspectors, js)
	}
	if rf.profile != "" {
		profile = tracers.NewGasProfile()
		inspectors = append(inspectors, profile)
	}
	if rf.otlp != "" {
		tp, err := tracers.NewOTLPProvider(ctx, rf.otlp)
		if err != nil {
			return err
		}
		defer func() {
			shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := tp.Shutdown(shutdown); err != nil {
				log.Warn(log.CLI, "span export failed", "err", err)
			}
		}()
		inspectors = append(inspectors, tracers.NewOtelInspector(ctx, tp))
	}

	var before state.Alloc
	if rf.diff {
		before = cache.Dump()
	}

	msg := &vm.Message{Caller: common.HexToAddress(rf.sender), Value: value, Input: input, Gas: rf.gas}
	if rf.create {
		msg.Kind, msg.Input = vm.KindCreate, code
	} else {
		msg.Kind, msg.To = vm.KindCall, common.HexToAddress(rf.to)
		if len(code) > 0 {
			cache.SetCode(msg.To, code)
		}
	}

	var in vm.Inspector
	switch len(inspectors) {
	case 0:
	case 1:
		in = inspectors[0]
	default:
		in = inspectors
	}
	evm := vm.New(cache, rs, rf.config(in), rf.block(), rf.tx())
	start := time.Now()
	o := evm.Execute(ctx, msg)
	evm.Finalize()
	cache.FinishTx()
	log.Info(log.CLI, "executed", "fork", rs.Fork, "status", o.Status, "gasUsed", o.GasUsed, "elapsed", time.Since(start))

	w := cmd.OutOrStdout()
	if err := printOutcome(w, evm, o); err != nil {
		return err
	}
	if tree != nil {
		fmt.Fprintln(w, tree.String())
	}
	if js != nil {
		res, err := js.Result()
		if err != nil {
			return fmt.Errorf("inspector script: %w", err)
		}
		fmt.Fprintln(w, string(res))
	}
	if profile != nil {
		if err := writeProfile(rf.profile, profile); err != nil {
			return err
		}
	}
	if err := cache.Err(); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	after := cache.Dump()
	if rf.dump {
		data, err := after.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	}
	if rf.diff {
		if err := printAllocDiff(w, before, after); err != nil {
			return err
		}
	}
	if rf.commit {
		return cache.Commit(store)
	}
	return nil
}

func writeProfile(path string, p *tracers.GasProfile) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	return p.Render(fh, "gas by opcode")
}
