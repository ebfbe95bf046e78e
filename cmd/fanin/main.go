package main

import (
	"fmt"
	"os"

	"github.com/panyam/fanin/internal/cli"
)

// runMain executes the command line and returns the exit code
func runMain() int {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain())
}
