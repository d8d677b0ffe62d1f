package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kyouko-taiga/dyva/internal/program"
)

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Load a dyva source file and report its diagnostics",
	Long: `check parses, scopes, lowers, and runs the IR analyses over the given
file (and every module it imports, transitively), then prints every
accumulated diagnostic to stderr in the spec's GNU-style format.

Exit status is 0 if no module reported an error, 1 otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	base, name := filepath.Dir(path), filepath.Base(path)

	p := program.New(program.WithBasePath(base))
	if _, err := p.Load(name, true); err != nil {
		exitWithError("loading %s: %v", path, err)
		return nil
	}

	failed := false
	for _, mod := range p.Modules() {
		for _, d := range mod.Diags.Sorted() {
			fmt.Fprintln(os.Stderr, d.Format())
		}
		if mod.Diags.ContainsError() {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
	return nil
}
