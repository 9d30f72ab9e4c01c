package main

import (
	"fmt"

	"github.com/colorfulnotion/evm/common"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			info, ok := common.ReadCommitInfo()
			if !ok {
				fmt.Fprintf(w, "evmrun %s (built %s)\n", Version, BuildTime)
				return
			}
			branch := ""
			if info.Branch != "" {
				branch = " on " + info.Branch
			}
			fmt.Fprintf(w, "evmrun %s (commit %s%s, built %s)\n", Version, info.Short(), branch, BuildTime)
		},
	}
}
