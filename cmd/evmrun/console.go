package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/rules"
	"github.com/colorfulnotion/evm/state"
	"github.com/colorfulnotion/evm/vm"
	"github.com/dop251/goja"
	"github.com/spf13/cobra"
)

const consoleHelp = `run(code, input?, value?)   call code installed at the default receiver
create(initcode, value?)    create a contract
call(address, input?, value?)
setBalance(address, value)  setCode(address, code)  setStorage(address, key, value)
balance(address)  nonce(address)  code(address)  storage(address, key)
fork(name?)                 show or switch the rule set
dump()  commit()  help()  exit`

// console is a JavaScript shell over one state cache. Each run is its own
// transaction against the state left by the previous ones.
type console struct {
	env   envFlags
	rs    *rules.RuleSet
	store *state.Store
	cache *state.Cache
	rt    *goja.Runtime
}

func newConsoleCmd() *cobra.Command {
	var c console
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive JavaScript console over an execution environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.start()
		},
	}
	c.env.register(cmd)
	return cmd
}

func (c *console) start() error {
	var err error
	if c.rs, err = c.env.ruleSet(); err != nil {
		return err
	}
	if c.store, c.cache, err = c.env.openState(c.rs); err != nil {
		return err
	}
	defer c.store.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "evm> ",
		HistoryFile: filepath.Join(os.TempDir(), "evmrun_console_history.txt"),
	})
	if err != nil {
		return fmt.Errorf("start readline: %w", err)
	}
	defer rl.Close()

	c.rt = goja.New()
	c.bind()

	fmt.Printf("%s (%s), type help() for the commands\n", common.Colorize(common.ColorGreen, "evmrun console", noColor), c.rs.Name)
	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "exit" {
			break
		}
		if line == "" {
			continue
		}
		if v, err := c.eval(line); err != nil {
			fmt.Printf("%s %v\n", common.Colorize(common.ColorRed, "error:", noColor), err)
		} else if v != "" {
			fmt.Println(v)
		}
	}
	return nil
}

// eval runs one line and renders its value the way print would.
func (c *console) eval(src string) (string, error) {
	v, err := c.rt.RunString(src)
	if err != nil {
		return "", err
	}
	if v == nil || goja.IsUndefined(v) {
		return "", nil
	}
	return render(c.rt, v), nil
}

func render(rt *goja.Runtime, v goja.Value) string {
	if obj, ok := v.(*goja.Object); ok {
		if js, err := rt.RunString("JSON.stringify"); err == nil {
			if fn, ok := goja.AssertFunction(js); ok {
				if s, err := fn(goja.Undefined(), obj, goja.Null(), rt.ToValue(2)); err == nil {
					return s.String()
				}
			}
		}
	}
	return v.String()
}

func (c *console) bind() {
	rt := c.rt
	must := func(err error) {
		if err != nil {
			panic(rt.NewGoError(err))
		}
	}
	hexArg := func(call goja.FunctionCall, i int) []byte {
		if goja.IsUndefined(call.Argument(i)) {
			return nil
		}
		b, err := parseHex(call.Argument(i).String())
		must(err)
		return b
	}
	valueArg := func(call goja.FunctionCall, i int) string {
		if goja.IsUndefined(call.Argument(i)) {
			return ""
		}
		return call.Argument(i).String()
	}
	addrArg := func(call goja.FunctionCall, i int) common.Address {
		return common.HexToAddress(call.Argument(i).String())
	}

	rt.Set("print", func(args ...goja.Value) {
		for _, arg := range args {
			fmt.Println(render(rt, arg))
		}
	})
	rt.Set("help", func() { fmt.Println(consoleHelp) })
	rt.Set("run", func(call goja.FunctionCall) goja.Value {
		to := common.HexToAddress(defaultReceiver)
		c.cache.SetCode(to, hexArg(call, 0))
		o, err := c.execute(vm.KindCall, to, hexArg(call, 1), valueArg(call, 2))
		must(err)
		return rt.ToValue(o)
	})
	rt.Set("call", func(call goja.FunctionCall) goja.Value {
		o, err := c.execute(vm.KindCall, addrArg(call, 0), hexArg(call, 1), valueArg(call, 2))
		must(err)
		return rt.ToValue(o)
	})
	rt.Set("create", func(call goja.FunctionCall) goja.Value {
		o, err := c.execute(vm.KindCreate, common.Address{}, hexArg(call, 0), valueArg(call, 1))
		must(err)
		return rt.ToValue(o)
	})
	rt.Set("setBalance", func(call goja.FunctionCall) goja.Value {
		v, err := parseValue(valueArg(call, 1))
		must(err)
		c.cache.SetBalance(addrArg(call, 0), v)
		return goja.Undefined()
	})
	rt.Set("setCode", func(call goja.FunctionCall) goja.Value {
		c.cache.SetCode(addrArg(call, 0), hexArg(call, 1))
		return goja.Undefined()
	})
	rt.Set("setStorage", func(call goja.FunctionCall) goja.Value {
		key := common.BytesToHash(hexArg(call, 1))
		c.cache.SetState(addrArg(call, 0), key, common.BytesToHash(hexArg(call, 2)))
		return goja.Undefined()
	})
	rt.Set("balance", func(call goja.FunctionCall) goja.Value {
		return rt.ToValue(c.cache.GetBalance(addrArg(call, 0)).Dec())
	})
	rt.Set("nonce", func(call goja.FunctionCall) goja.Value {
		return rt.ToValue(c.cache.GetNonce(addrArg(call, 0)))
	})
	rt.Set("code", func(call goja.FunctionCall) goja.Value {
		return rt.ToValue(common.Bytes2Hex(c.cache.GetCode(addrArg(call, 0))))
	})
	rt.Set("storage", func(call goja.FunctionCall) goja.Value {
		key := common.BytesToHash(hexArg(call, 1))
		return rt.ToValue(c.cache.GetState(addrArg(call, 0), key).Hex())
	})
	rt.Set("fork", func(call goja.FunctionCall) goja.Value {
		if !goja.IsUndefined(call.Argument(0)) {
			rs, err := rules.ReadRuleSet(call.Argument(0).String())
			must(err)
			c.rs = rs
			c.cache.SetStateClear(rs.IsEIP158())
		}
		return rt.ToValue(c.rs.Name)
	})
	rt.Set("dump", func() goja.Value {
		data, err := c.cache.Dump().JSON()
		must(err)
		return rt.ToValue(string(data))
	})
	rt.Set("commit", func() goja.Value {
		must(c.cache.Commit(c.store))
		return goja.Undefined()
	})
}

func (c *console) execute(kind vm.CallKind, to common.Address, input []byte, value string) (map[string]any, error) {
	v, err := parseValue(value)
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.env.context()
	defer cancel()
	msg := &vm.Message{Kind: kind, Caller: common.HexToAddress(c.env.sender), To: to, Value: v, Input: input, Gas: c.env.gas}
	evm := vm.New(c.cache, c.rs, c.env.config(nil), c.env.block(), c.env.tx())
	o := evm.Execute(ctx, msg)
	evm.Finalize()
	c.cache.FinishTx()
	if err := c.cache.Err(); err != nil {
		return nil, err
	}
	res := map[string]any{
		"status":  o.Status.String(),
		"gasUsed": o.GasUsed,
		"refund":  o.GasRefunded,
		"output":  common.Bytes2Hex(o.Output),
		"logs":    len(o.Logs),
	}
	if o.Status == vm.Errored && o.Err != nil {
		res["error"] = o.Err.Error()
	}
	if o.ContractAddress != (common.Address{}) {
		res["address"] = o.ContractAddress.Hex()
	}
	return res, nil
}
