package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Root command flags
	verbose bool

	// Root command
	rootCmd = &cobra.Command{
		Use:               "retroterm",
		Short:             "A BBS-era terminal emulator with XMODEM/YMODEM file transfer",
		Version:           "1.0.0",
		Run:               runRoot,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(connectCmd)
}

// runRoot always shows help; connecting requires the connect subcommand
func runRoot(cmd *cobra.Command, args []string) {
	_ = cmd.Help()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
