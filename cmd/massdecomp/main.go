// massdecomp - isotopologue mass spectrum decomposition tool
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/MassDecomposer/cmd/massdecomp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
