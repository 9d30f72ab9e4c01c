package main

import (
	"fmt"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/vm/program"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var initcode bool
	cmd := &cobra.Command{
		Use:   "validate <container>",
		Short: "Parse and validate an EOF container (hex, or @file)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := parseHex(args[0])
			if err != nil {
				return err
			}
			kind := program.KindRuntime
			if initcode {
				kind = program.KindInitcode
			}
			c, err := program.ParseContainer(code, false)
			if err != nil {
				return fmt.Errorf("invalid container: %w", err)
			}
			if err := program.ValidateContainer(c, kind); err != nil {
				return fmt.Errorf("invalid container: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %d code sections, %d subcontainers, %d data bytes\n",
				common.Colorize(common.ColorGreen, "valid", noColor), len(c.CodeSections), len(c.SubContainers), c.DataSize)
			for i, t := range c.Types {
				outputs := fmt.Sprint(t.Outputs)
				if t.NonReturning() {
					outputs = "non-returning"
				}
				fmt.Fprintf(w, "  section %d: %d bytes, inputs %d, outputs %s, max stack %d\n",
					i, len(c.CodeSections[i]), t.Inputs, outputs, t.MaxStackHeight)
			}
			stats := program.FromContainer(c).Analyze()
			fmt.Fprintf(w, "  %d instructions in %d blocks\n", stats.InstructionCount, stats.BasicBlockCount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&initcode, "initcode", false, "validate as initcode instead of runtime code")
	return cmd
}
