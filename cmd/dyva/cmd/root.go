package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dyva",
	Short: "dyva front-end driver",
	Long: `dyva drives the front-end of the dyva language: lexing, parsing,
scoping, lowering to IR, and running the dominance/liveness analyses over
every loaded module.

This is a thin console wrapper around the in-scope compiler packages; it
does not run the resulting IR.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
