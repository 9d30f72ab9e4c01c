// evmrun executes bytecode against a prestate and reports the outcome.
package main

import (
	"fmt"
	"os"

	"github.com/colorfulnotion/evm/log"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// noColor turns off ANSI colors in command output.
var noColor bool

func main() {
	var rootCmd = &cobra.Command{
		Use:   "evmrun",
		Short: "Run and inspect EVM bytecode",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	var (
		logLevel string
		logJSON  bool
		debug    string
	)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "plain output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON lines")
	rootCmd.PersistentFlags().StringVar(&debug, "debug", "", "comma separated log modules to enable, e.g. evm_frame,evm_state")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := log.InitLoggerTo(os.Stderr, logLevel, logJSON); err != nil {
			return err
		}
		if debug != "" {
			log.EnableModules(debug)
		}
		return nil
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newDisasmCmd(),
		newConsoleCmd(),
		newDiffCmd(),
		newVersionCmd(),
	)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
