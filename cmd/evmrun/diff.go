package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/colorfulnotion/evm/state"
	"github.com/spf13/cobra"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <before.json> <after.json>",
		Short: "Show the difference between two state dumps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := state.ReadAlloc(args[0])
			if err != nil {
				return err
			}
			after, err := state.ReadAlloc(args[1])
			if err != nil {
				return err
			}
			return printAllocDiff(cmd.OutOrStdout(), before, after)
		},
	}
}

func printAllocDiff(w io.Writer, before, after state.Alloc) error {
	left, err := json.Marshal(before)
	if err != nil {
		return err
	}
	right, err := json.Marshal(after)
	if err != nil {
		return err
	}
	delta, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return fmt.Errorf("compare dumps: %w", err)
	}
	if !delta.Modified() {
		_, err = fmt.Fprintln(w, "no state changes")
		return err
	}
	var leftObj map[string]interface{}
	if err := json.Unmarshal(left, &leftObj); err != nil {
		return err
	}
	f := formatter.NewAsciiFormatter(leftObj, formatter.AsciiFormatterConfig{ShowArrayIndex: true, Coloring: true})
	out, err := f.Format(delta)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}
