package main

import (
	"fmt"
	"io"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/vm"
	"github.com/colorfulnotion/evm/vm/program"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func newDisasmCmd() *cobra.Command {
	var eof, stats bool
	cmd := &cobra.Command{
		Use:   "disasm <code>",
		Short: "Disassemble legacy code or an EOF container (hex, or @file)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseHex(args[0])
			if err != nil {
				return err
			}
			p, err := program.New(code, common.Hash{}, eof, program.KindRuntime)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if p.IsEOF() {
				for i := range p.Container.CodeSections {
					fmt.Fprintf(w, "section %d:\n", i)
					printInstructions(w, p.SectionInstructions(i))
				}
			} else {
				printInstructions(w, p.GetInstructions())
			}
			if stats {
				s := p.Analyze()
				fmt.Fprintf(w, "\n%d instructions, %d blocks, %d jumpdests\n", s.InstructionCount, s.BasicBlockCount, s.JumpdestCount)
				ops := make([]byte, 0, len(s.OpcodeDistribution))
				for op := range s.OpcodeDistribution {
					ops = append(ops, op)
				}
				slices.Sort(ops)
				for _, op := range ops {
					fmt.Fprintf(w, "  %-14s %d\n", vm.OpCode(op), s.OpcodeDistribution[op])
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&eof, "eof", true, "decode code with the container magic as EOF")
	cmd.Flags().BoolVar(&stats, "stats", false, "print an opcode histogram")
	return cmd
}

func printInstructions(w io.Writer, ins []program.InstructionInfo) {
	for _, in := range ins {
		mark := " "
		if in.IsBasicBlockStart {
			mark = ">"
		}
		if len(in.Immediate) > 0 {
			fmt.Fprintf(w, "%s %05d %-14s %s\n", mark, in.PC, vm.OpCode(in.Opcode), common.Bytes2Hex(in.Immediate))
		} else {
			fmt.Fprintf(w, "%s %05d %s\n", mark, in.PC, vm.OpCode(in.Opcode))
		}
	}
}
