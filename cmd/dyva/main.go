// Command dyva is the console driver for the front-end packages: it wires
// cmd/dyva/cmd's cobra command tree to the in-scope load pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/kyouko-taiga/dyva/cmd/dyva/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
